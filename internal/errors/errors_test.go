package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shazhongcheng/TestGoServer/pkg/client"
	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "connection error",
			code:    "G001",
			wantMsg: "Connection to the gate failed",
			wantCat: CategoryConnection,
		},
		{
			name:    "session error",
			code:    "G004",
			wantMsg: "Request timed out",
			wantCat: CategorySession,
		},
		{
			name:    "config error",
			code:    "G023",
			wantMsg: "Unsupported config format",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "G999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewDoesNotShareTemplates(t *testing.T) {
	a := New("G022").WithDetail("clients must be > 0")
	b := New("G022")
	if b.Detail != "" {
		t.Errorf("Detail leaked between errors: %q", b.Detail)
	}
	if a.Detail == "" {
		t.Error("WithDetail() did not stick")
	}
}

func TestGateError_Error(t *testing.T) {
	tests := []struct {
		err  *GateError
		want string
	}{
		{&GateError{Code: "G004", Message: "Request timed out"}, "G004: Request timed out"},
		{&GateError{Message: "plain"}, "plain"},
		{New("G001").Wrap(fmt.Errorf("dial tcp: refused")), "G001: Connection to the gate failed: dial tcp: refused"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWrapUnwraps(t *testing.T) {
	inner := errors.New("inner")
	err := New("G041").Wrap(inner)
	if !errors.Is(err, inner) {
		t.Error("errors.Is() does not see the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "G052") != nil {
		t.Error("FromError(nil) != nil")
	}

	orig := New("G020")
	if got := FromError(fmt.Errorf("load: %w", orig), "G052"); got != orig {
		t.Errorf("FromError() = %v, want the wrapped GateError", got)
	}

	got := FromError(errors.New("boom"), "G041")
	if got.Code != "G041" || got.Wrapped == nil {
		t.Errorf("FromError() = %+v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", &client.OpError{Op: "login", Err: fmt.Errorf("%w: 5s", client.ErrTimeout)}, "G004"},
		{"connection", fmt.Errorf("%w: dial", client.ErrConnection), "G001"},
		{"closed by gate", client.ErrConnectionClosed, "G002"},
		{"closed locally", client.ErrClosed, "G002"},
		{"decode", client.ErrProtocolDecode, "G003"},
		{"invalid state", client.ErrInvalidState, "G005"},
		{"resume rejected", client.ErrResumeRejected, "G006"},
		{"server error", &client.ServerError{Code: protocol.CodeInvalidToken, Message: "bad"}, "G007"},
		{"other", errors.New("disk full"), "G041"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, "G041")
			if got.Code != tt.want {
				t.Errorf("Classify() code = %q, want %q", got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("Classify() lost the cause")
			}
		})
	}

	if Classify(nil, "G041") != nil {
		t.Error("Classify(nil) != nil")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("G004").Wrap(errors.New("client 3: login: client: timeout"))
	out := err.Format()

	for _, want := range []string{
		"ERROR G004: Request timed out [session]",
		"The gate did not answer within the configured wait.",
		"Cause: client 3: login: client: timeout",
		"Hint: Raise --login-timeout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("G051").Wrap(errors.New("address in use"))
	want := "G051: Listen failed (address in use)"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("G006").Wrap(errors.New(`session "7" unknown`))

	var decoded map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON() is not JSON: %v", jerr)
	}
	if decoded["code"] != "G006" || decoded["category"] != "session" {
		t.Errorf("decoded = %v", decoded)
	}
	if decoded["cause"] != `session "7" unknown` {
		t.Errorf("cause = %q", decoded["cause"])
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Fprint(&b, errors.New("plain failure"))
	if !strings.Contains(b.String(), "ERROR: plain failure") {
		t.Errorf("Fprint() = %q", b.String())
	}

	b.Reset()
	Fprint(&b, fmt.Errorf("run: %w", New("G020")))
	if !strings.Contains(b.String(), "ERROR G020: Config file not found") {
		t.Errorf("Fprint() = %q", b.String())
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) < 10 {
		t.Errorf("GetAllCodes() returned %d codes", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		if !strings.HasPrefix(code, "G") {
			t.Errorf("code %q does not start with G", code)
		}
		tmpl, _ := GetTemplate(code)
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("template %s is incomplete: %+v", code, tmpl)
		}
	}
}

func TestRegister(t *testing.T) {
	Register("G900", ErrorTemplate{Category: CategoryCLI, Message: "Custom"})
	defer delete(registry, "G900")

	if got := New("G900"); got.Message != "Custom" || got.Category != CategoryCLI {
		t.Errorf("New(G900) = %+v", got)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  int
	}{
		{"", 10, 0},
		{"short", 10, 1},
		{"one two three four five", 9, 3},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if len(got) != tt.want {
			t.Errorf("wrapText(%q, %d) = %q, want %d lines", tt.text, tt.width, got, tt.want)
		}
		for _, line := range got {
			if len(line) > tt.width && !strings.Contains(line, " ") {
				continue
			}
			if len(line) > tt.width {
				t.Errorf("line %q exceeds width %d", line, tt.width)
			}
		}
	}
}
