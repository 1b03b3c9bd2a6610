package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// MsgID is the integer message identifier carried by every envelope.
type MsgID int32

// Message ids understood by the gate.
const (
	MsgResumeReq   MsgID = 1
	MsgResumeRsp   MsgID = 2
	MsgSessionInit MsgID = 3

	MsgHeartbeatReq MsgID = 10
	MsgHeartbeatRsp MsgID = 11

	MsgErrorRsp MsgID = 21

	MsgLoginReq MsgID = 1001
	MsgLoginRsp MsgID = 1002

	MsgChatSendReq MsgID = 2001
	MsgChatSendRsp MsgID = 2002

	MsgEnterGameReq        MsgID = 3001
	MsgEnterGameRsp        MsgID = 3002
	MsgLoadPlayerDataReq   MsgID = 3003
	MsgLoadPlayerDataRsp   MsgID = 3004
	MsgPlayerResumeReq     MsgID = 3005
	MsgPlayerOfflineNotify MsgID = 3006
)

// String returns the decimal id.
func (id MsgID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Kind classifies what an envelope means to the client engine, independent of
// the numeric id a particular gate build assigns to it.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindSessionInit
	KindLoginReq
	KindLoginRsp
	KindResumeReq
	KindResumeRsp
	KindHeartbeatReq
	KindHeartbeatRsp
	KindErrorRsp
	KindChatReq
	KindChatRsp
	KindEnterGameReq
	KindEnterGameRsp
	KindPlayerDataReq
	KindPlayerDataRsp
	KindPlayerResumeReq
	KindPlayerOffline
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSessionInit:
		return "SessionInit"
	case KindLoginReq:
		return "LoginReq"
	case KindLoginRsp:
		return "LoginRsp"
	case KindResumeReq:
		return "ResumeReq"
	case KindResumeRsp:
		return "ResumeRsp"
	case KindHeartbeatReq:
		return "HeartbeatReq"
	case KindHeartbeatRsp:
		return "HeartbeatRsp"
	case KindErrorRsp:
		return "ErrorRsp"
	case KindChatReq:
		return "ChatReq"
	case KindChatRsp:
		return "ChatRsp"
	case KindEnterGameReq:
		return "EnterGameReq"
	case KindEnterGameRsp:
		return "EnterGameRsp"
	case KindPlayerDataReq:
		return "PlayerDataReq"
	case KindPlayerDataRsp:
		return "PlayerDataRsp"
	case KindPlayerResumeReq:
		return "PlayerResumeReq"
	case KindPlayerOffline:
		return "PlayerOffline"
	default:
		return "Unknown"
	}
}

// Platform identifies the client platform in a login request.
type Platform int32

const (
	PlatformTest    Platform = 0
	PlatformAndroid Platform = 1
	PlatformIOS     Platform = 2
	PlatformPC      Platform = 3
)

func (p Platform) String() string {
	switch p {
	case PlatformTest:
		return "test"
	case PlatformAndroid:
		return "android"
	case PlatformIOS:
		return "ios"
	case PlatformPC:
		return "pc"
	default:
		return "platform(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParsePlatform accepts a platform name or its number.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "test":
		return PlatformTest, nil
	case "android":
		return PlatformAndroid, nil
	case "ios":
		return PlatformIOS, nil
	case "pc":
		return PlatformPC, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(PlatformTest) || n > int(PlatformPC) {
		return 0, fmt.Errorf("protocol: unknown platform %q", s)
	}
	return Platform(n), nil
}
