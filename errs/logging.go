// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errs

import (
	"log"
	"os"
	"strconv"
)

var logFile *os.File

// InitLogFile opens "<dirout>/<fnamekey>_p<rank>.log" and connects the
// standard logger to it, mirroring the teacher's per-rank log file.
func InitLogFile(dirout, fnamekey string, rank int) error {
	f, err := os.Create(dirout + "/" + fnamekey + "_p" + strconv.Itoa(rank) + ".log")
	if err != nil {
		return err
	}
	logFile = f
	log.SetOutput(f)
	return nil
}

// FlushLog closes the log file opened by InitLogFile.
func FlushLog() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// LogErr logs a non-Code error with an operation label and returns the
// corresponding Code (InvalidParameter if err did not originate in errs).
func LogErr(err error, op string) Code {
	if err == nil {
		return OK
	}
	code := CodeOf(err)
	log.Printf("ERROR: %s: %s: %v", op, code, err)
	return code
}

// LogCode logs a Code directly under the given operation label.
func LogCode(code Code, op string, args ...interface{}) Code {
	if code == OK {
		return OK
	}
	if len(args) > 0 {
		log.Printf("ERROR: %s: %s %v", op, code, args)
	} else {
		log.Printf("ERROR: %s: %s", op, code)
	}
	return code
}

// LogCond logs and returns code when condition is true, otherwise OK.
// This is the udm equivalent of the teacher's LogErrCond.
func LogCond(condition bool, code Code, op string, args ...interface{}) Code {
	if !condition {
		return OK
	}
	return LogCode(code, op, args...)
}

