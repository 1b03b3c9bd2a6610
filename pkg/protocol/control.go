package protocol

import (
	"errors"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// SessionInit is pushed by the gate as soon as a connection is accepted.
type SessionInit struct {
	SessionID int64
	Token     string
}

// LoginRequest authenticates an account on the current session.
type LoginRequest struct {
	Token     string
	AccountID string
	Platform  Platform
}

// LoginResponse carries the player bound to the session.
type LoginResponse struct {
	PlayerID int64
}

// ResumeRequest rebinds a new connection to an earlier session.
type ResumeRequest struct {
	SessionID int64
	Token     string
}

// ResumeResponse reports whether a resume was accepted.
type ResumeResponse struct {
	OK     bool
	Reason string
}

// ErrorResponse is the gate's generic failure reply.
type ErrorResponse struct {
	Code    ErrorCode
	Message string
}

var errZeroSession = errors.New("session_id is zero")

// EncodeSessionInit encodes a SessionInit payload.
func EncodeSessionInit(v *SessionInit) ([]byte, error) {
	x := newMessage(sessionInitDesc)
	x.setInt("session_id", v.SessionID)
	x.setString("token", v.Token)
	return x.marshal()
}

// DecodeSessionInit decodes a SessionInit payload. A session id of zero is
// rejected since the gate never assigns it.
func DecodeSessionInit(b []byte) (*SessionInit, error) {
	x, err := decodeControl(MsgSessionInit, sessionInitDesc, b)
	if err != nil {
		return nil, err
	}
	v := &SessionInit{SessionID: x.getInt("session_id"), Token: x.getString("token")}
	if v.SessionID == 0 {
		return nil, &DecodeError{MsgID: MsgSessionInit, Message: "SessionInit", Err: errZeroSession}
	}
	return v, nil
}

// EncodeLoginRequest encodes a LoginReq payload.
func EncodeLoginRequest(v *LoginRequest) ([]byte, error) {
	x := newMessage(loginReqDesc)
	x.setString("token", v.Token)
	x.setString("account_id", v.AccountID)
	x.setInt("platform", int64(v.Platform))
	return x.marshal()
}

// DecodeLoginRequest decodes a LoginReq payload.
func DecodeLoginRequest(b []byte) (*LoginRequest, error) {
	x, err := decodeControl(MsgLoginReq, loginReqDesc, b)
	if err != nil {
		return nil, err
	}
	return &LoginRequest{
		Token:     x.getString("token"),
		AccountID: x.getString("account_id"),
		Platform:  Platform(x.getInt("platform")),
	}, nil
}

// EncodeLoginResponse encodes a LoginRsp payload.
func EncodeLoginResponse(v *LoginResponse) ([]byte, error) {
	x := newMessage(loginRspDesc)
	x.setInt("player_id", v.PlayerID)
	return x.marshal()
}

// DecodeLoginResponse decodes a LoginRsp payload.
func DecodeLoginResponse(b []byte) (*LoginResponse, error) {
	x, err := decodeControl(MsgLoginRsp, loginRspDesc, b)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{PlayerID: x.getInt("player_id")}, nil
}

// EncodeResumeRequest encodes a ResumeReq payload.
func EncodeResumeRequest(v *ResumeRequest) ([]byte, error) {
	x := newMessage(resumeReqDesc)
	x.setInt("session_id", v.SessionID)
	x.setString("token", v.Token)
	return x.marshal()
}

// DecodeResumeRequest decodes a ResumeReq payload.
func DecodeResumeRequest(b []byte) (*ResumeRequest, error) {
	x, err := decodeControl(MsgResumeReq, resumeReqDesc, b)
	if err != nil {
		return nil, err
	}
	return &ResumeRequest{SessionID: x.getInt("session_id"), Token: x.getString("token")}, nil
}

// EncodeResumeResponse encodes a ResumeRsp payload.
func EncodeResumeResponse(v *ResumeResponse) ([]byte, error) {
	x := newMessage(resumeRspDesc)
	x.setBool("ok", v.OK)
	x.setString("reason", v.Reason)
	return x.marshal()
}

// DecodeResumeResponse decodes a ResumeRsp payload.
func DecodeResumeResponse(b []byte) (*ResumeResponse, error) {
	x, err := decodeControl(MsgResumeRsp, resumeRspDesc, b)
	if err != nil {
		return nil, err
	}
	return &ResumeResponse{OK: x.getBool("ok"), Reason: x.getString("reason")}, nil
}

// EncodeErrorResponse encodes an ErrorRsp payload.
func EncodeErrorResponse(v *ErrorResponse) ([]byte, error) {
	x := newMessage(errorRspDesc)
	x.setInt("code", int64(v.Code))
	x.setString("message", v.Message)
	return x.marshal()
}

// DecodeErrorResponse decodes an ErrorRsp payload.
func DecodeErrorResponse(b []byte) (*ErrorResponse, error) {
	x, err := decodeControl(MsgErrorRsp, errorRspDesc, b)
	if err != nil {
		return nil, err
	}
	return &ErrorResponse{Code: ErrorCode(x.getInt("code")), Message: x.getString("message")}, nil
}

func decodeControl(id MsgID, desc protoreflect.MessageDescriptor, b []byte) (message, error) {
	x, err := unmarshal(desc, b)
	if err != nil {
		return x, &DecodeError{MsgID: id, Message: string(desc.Name()), Err: err}
	}
	return x, nil
}
