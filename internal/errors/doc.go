// Package errors provides typed errors with exit codes for slotplanner.
//
// Exit codes:
//
//	ExitSuccess      = 0  // Success
//	ExitGeneralError = 1  // General/unknown errors
//	ExitConfigError  = 2  // Configuration file or flag error
//	ExitInputError   = 3  // Station list could not be read
//	ExitStoreError   = 4  // Approved-station database failure
//	ExitUnallocated  = 5  // --fail-on-unallocated and a station was left out
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
