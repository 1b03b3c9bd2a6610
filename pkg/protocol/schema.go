package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// The gate schema is declared here as a descriptor and realized with
// dynamicpb, so the binary encoding is plain protobuf and the text encoding
// is plain protojson.

type fieldDef struct {
	name   string
	number int32
	typ    descriptorpb.FieldDescriptorProto_Type
}

type messageDef struct {
	name   string
	fields []fieldDef
}

const (
	tInt32  = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tInt64  = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tString = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes  = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tBool   = descriptorpb.FieldDescriptorProto_TYPE_BOOL
)

var gateMessages = []messageDef{
	{name: "Envelope", fields: []fieldDef{
		{"msg_id", 1, tInt32},
		{"session_id", 2, tInt64},
		{"player_id", 3, tInt64},
		{"payload", 4, tBytes},
	}},
	{name: "SessionInit", fields: []fieldDef{
		{"session_id", 1, tInt64},
		{"token", 2, tString},
	}},
	{name: "LoginReq", fields: []fieldDef{
		{"token", 1, tString},
		{"account_id", 2, tString},
		{"platform", 3, tInt32},
	}},
	{name: "LoginRsp", fields: []fieldDef{
		{"player_id", 1, tInt64},
	}},
	{name: "ResumeReq", fields: []fieldDef{
		{"session_id", 1, tInt64},
		{"token", 2, tString},
	}},
	{name: "ResumeRsp", fields: []fieldDef{
		{"ok", 1, tBool},
		{"reason", 2, tString},
	}},
	{name: "ErrorRsp", fields: []fieldDef{
		{"code", 1, tInt32},
		{"message", 2, tString},
	}},
}

var (
	envelopeDesc    protoreflect.MessageDescriptor
	sessionInitDesc protoreflect.MessageDescriptor
	loginReqDesc    protoreflect.MessageDescriptor
	loginRspDesc    protoreflect.MessageDescriptor
	resumeReqDesc   protoreflect.MessageDescriptor
	resumeRspDesc   protoreflect.MessageDescriptor
	errorRspDesc    protoreflect.MessageDescriptor
)

func init() {
	fd, err := buildSchema()
	if err != nil {
		panic(fmt.Sprintf("protocol: invalid gate schema: %v", err))
	}
	msgs := fd.Messages()
	envelopeDesc = msgs.ByName("Envelope")
	sessionInitDesc = msgs.ByName("SessionInit")
	loginReqDesc = msgs.ByName("LoginReq")
	loginRspDesc = msgs.ByName("LoginRsp")
	resumeReqDesc = msgs.ByName("ResumeReq")
	resumeRspDesc = msgs.ByName("ResumeRsp")
	errorRspDesc = msgs.ByName("ErrorRsp")
}

func buildSchema() (protoreflect.FileDescriptor, error) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("gate/gate.proto"),
		Package: proto.String("gate"),
		Syntax:  proto.String("proto3"),
	}
	for _, m := range gateMessages {
		dp := &descriptorpb.DescriptorProto{Name: proto.String(m.name)}
		for _, f := range m.fields {
			dp.Field = append(dp.Field, &descriptorpb.FieldDescriptorProto{
				Name:   proto.String(f.name),
				Number: proto.Int32(f.number),
				Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
				Type:   f.typ.Enum(),
			})
		}
		file.MessageType = append(file.MessageType, dp)
	}
	return protodesc.NewFile(file, nil)
}

// message wraps a dynamic message with typed accessors keyed by field name.
type message struct {
	m *dynamicpb.Message
}

func newMessage(desc protoreflect.MessageDescriptor) message {
	return message{m: dynamicpb.NewMessage(desc)}
}

func (x message) field(name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := x.m.Descriptor().Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("protocol: %s has no field %s", x.m.Descriptor().Name(), name))
	}
	return fd
}

// Zero values are left unset so that encodings stay canonical.

func (x message) setInt(name protoreflect.Name, v int64) {
	if v == 0 {
		return
	}
	fd := x.field(name)
	if fd.Kind() == protoreflect.Int32Kind {
		x.m.Set(fd, protoreflect.ValueOfInt32(int32(v)))
		return
	}
	x.m.Set(fd, protoreflect.ValueOfInt64(v))
}

func (x message) setString(name protoreflect.Name, v string) {
	if v != "" {
		x.m.Set(x.field(name), protoreflect.ValueOfString(v))
	}
}

func (x message) setBool(name protoreflect.Name, v bool) {
	if v {
		x.m.Set(x.field(name), protoreflect.ValueOfBool(v))
	}
}

func (x message) setBytes(name protoreflect.Name, v []byte) {
	if len(v) > 0 {
		x.m.Set(x.field(name), protoreflect.ValueOfBytes(v))
	}
}

func (x message) getInt(name protoreflect.Name) int64 {
	return x.m.Get(x.field(name)).Int()
}

func (x message) getString(name protoreflect.Name) string {
	return x.m.Get(x.field(name)).String()
}

func (x message) getBool(name protoreflect.Name) bool {
	return x.m.Get(x.field(name)).Bool()
}

func (x message) getBytes(name protoreflect.Name) []byte {
	b := x.m.Get(x.field(name)).Bytes()
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (x message) marshal() ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(x.m)
}

// unmarshal parses b into a fresh message of desc. A known field number that
// arrives with the wrong wire type lands in the unknown set during parsing;
// that is reported as a mismatch instead of being silently dropped.
func unmarshal(desc protoreflect.MessageDescriptor, b []byte) (message, error) {
	x := newMessage(desc)
	if err := proto.Unmarshal(b, x.m); err != nil {
		return x, err
	}
	if err := checkWireTypes(x.m); err != nil {
		return x, err
	}
	return x, nil
}

func checkWireTypes(m protoreflect.Message) error {
	raw := m.GetUnknown()
	fields := m.Descriptor().Fields()
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return protowire.ParseError(n)
		}
		if fd := fields.ByNumber(num); fd != nil {
			return fmt.Errorf("field %s: unexpected wire type %d", fd.Name(), typ)
		}
		v := protowire.ConsumeFieldValue(num, typ, raw[n:])
		if v < 0 {
			return protowire.ParseError(v)
		}
		raw = raw[n+v:]
	}
	return nil
}
