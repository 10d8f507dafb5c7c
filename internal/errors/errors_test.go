package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPlannerError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *PlannerError
		wantMsg string
	}{
		{
			name:    "without cause",
			err:     New(ExitGeneralError, "something went wrong"),
			wantMsg: "something went wrong",
		},
		{
			name:    "with cause",
			err:     StoreError("open", fmt.Errorf("disk full")),
			wantMsg: "store open failed: disk full",
		},
		{
			name:    "unallocated",
			err:     Unallocated(2),
			wantMsg: "2 station(s) could not be allocated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestPlannerError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InputError("read stations", cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should find the cause")
	}
	if New(ExitGeneralError, "no cause").Unwrap() != nil {
		t.Errorf("Unwrap() without cause should be nil")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", fmt.Errorf("plain"), ExitGeneralError},
		{"config", ConfigError("bad", nil), ExitConfigError},
		{"wrapped store", fmt.Errorf("ctx: %w", StoreError("list", nil)), ExitStoreError},
		{"unallocated", Unallocated(1), ExitUnallocated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
