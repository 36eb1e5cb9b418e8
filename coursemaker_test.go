package coursegen

import (
	"errors"
	"strings"
	"testing"
)

func TestRemoteCallErrorWrapsEmptyReply(t *testing.T) {
	err := &RemoteCallError{Op: "chat completion", Err: errNoChoices}
	if !errors.Is(err, errNoChoices) {
		t.Fatal("wrapped cause should be reachable through errors.Is")
	}
	if !strings.Contains(err.Error(), "no choices in model reply") {
		t.Fatalf("error message should carry the cause, got %q", err.Error())
	}
}
