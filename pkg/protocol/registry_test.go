package protocol

import "testing"

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		id   MsgID
		kind Kind
	}{
		{1, KindResumeReq},
		{2, KindResumeRsp},
		{3, KindSessionInit},
		{10, KindHeartbeatReq},
		{11, KindHeartbeatRsp},
		{21, KindErrorRsp},
		{1001, KindLoginReq},
		{1002, KindLoginRsp},
		{2001, KindChatReq},
		{3003, KindPlayerDataReq},
		{3004, KindPlayerDataRsp},
		{3006, KindPlayerOffline},
	}

	for _, tc := range tests {
		if got := r.Kind(tc.id); got != tc.kind {
			t.Errorf("Kind(%d) = %s, want %s", tc.id, got, tc.kind)
		}
		if id, ok := r.ID(tc.kind); !ok || id != tc.id {
			t.Errorf("ID(%s) = %d, %v; want %d, true", tc.kind, id, ok, tc.id)
		}
	}

	if got := r.Kind(9999); got != KindUnknown {
		t.Errorf("Kind(9999) = %s, want Unknown", got)
	}
	if r.Len() != 16 {
		t.Errorf("Len() = %d, want 16", r.Len())
	}
	ids := r.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("IDs() not ascending: %v", ids)
		}
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name string
		m    map[MsgID]Kind
	}{
		{name: "duplicate_kind", m: map[MsgID]Kind{1: KindLoginReq, 2: KindLoginReq}},
		{name: "unknown_kind", m: map[MsgID]Kind{1: KindUnknown}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRegistry(tc.m); err == nil {
				t.Fatal("NewRegistry() error = nil")
			}
		})
	}
}

func TestCustomRegistry(t *testing.T) {
	r, err := NewRegistry(map[MsgID]Kind{500: KindHeartbeatReq})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.MustID(KindHeartbeatReq); got != 500 {
		t.Errorf("MustID() = %d, want 500", got)
	}
	if _, ok := r.ID(KindLoginReq); ok {
		t.Error("ID(LoginReq) ok = true on a registry without it")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustID() did not panic for a missing kind")
		}
	}()
	r.MustID(KindLoginReq)
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{"", PlatformTest, false},
		{"Android", PlatformAndroid, false},
		{"ios", PlatformIOS, false},
		{"pc", PlatformPC, false},
		{"2", PlatformIOS, false},
		{"7", 0, true},
		{"console", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePlatform(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePlatform(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParsePlatform(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if PlatformPC.String() != "pc" || Platform(9).String() != "platform(9)" {
		t.Error("Platform.String() mismatch")
	}
}
