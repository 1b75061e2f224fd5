// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. A command returning ExitError is expected to have
// already written its own output; main exits with the code silently.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish a handled non-zero exit from an
// unexpected error to display.
func (e *ExitError) ExitCode() int {
	return e.Code
}
