package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGetCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", New(CodeMissingLiveState, "the trail went cold"))

	if got := GetCode(err); got != CodeMissingLiveState {
		t.Fatalf("expected %s, got %s", CodeMissingLiveState, got)
	}
	if !IsCode(err, CodeMissingLiveState) {
		t.Fatal("IsCode should see through fmt.Errorf wrapping")
	}
	if got := GetCode(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %s for plain errors, got %s", CodeUnknown, got)
	}
}

func TestGRPCStatus(t *testing.T) {
	err := New(CodeUnresolvableChoice, "no such choice %q", "3-run")

	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("status.FromError should accept domain errors")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %s", st.Code())
	}
	if st.Message() != `no such choice "3-run"` {
		t.Fatalf("unexpected status message %q", st.Message())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnresolvableChoice:    http.StatusBadRequest,
		CodeUnknownActionCategory: http.StatusBadRequest,
		CodeInvalidPhaseForAction: http.StatusConflict,
		CodePreconditionNotMet:    http.StatusConflict,
		CodeMissingLiveState:      http.StatusConflict,
		CodeSessionNotFound:       http.StatusNotFound,
		CodeInternal:              http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := code.HTTPStatus(); got != want {
			t.Errorf("%s: expected %d, got %d", code, want, got)
		}
	}
}

func TestMessageAndMetadata(t *testing.T) {
	err := New(CodePreconditionNotMet, "too weak to travel").With("capacity", "0.10")
	if Message(err) != "too weak to travel" {
		t.Fatalf("unexpected message %q", Message(err))
	}
	if err.Metadata["capacity"] != "0.10" {
		t.Fatalf("metadata not recorded: %v", err.Metadata)
	}
	if Message(errors.New("boom")) != "an unexpected error occurred" {
		t.Fatal("non-domain errors should get the generic message")
	}
}
