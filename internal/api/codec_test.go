package api

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

var allMessages = []any{
	PingRequest{}, PingResponse{},
	RegisterUserRequest{}, RegisterUserResponse{},
	GetSaltRequest{}, GetSaltResponse{},
	LoginRequest{}, LoginResponse{},
	RefreshTokenRequest{}, RefreshTokenResponse{},
	GenerateCodeRequest{}, GenerateCodeResponse{},
	VerifyCodeRequest{}, VerifyCodeResponse{},
	Session{},
	ListSessionsRequest{}, ListSessionsResponse{},
	GetSessionRequest{}, GetSessionResponse{},
	GetProfileRequest{}, GetProfileResponse{},
}

func TestSchema_CoversEveryMessage(t *testing.T) {
	assert.Equal(t, len(allMessages), File.Messages().Len())

	for _, m := range allMessages {
		typ := reflect.TypeOf(m)
		info, err := infoFor(typ)
		require.NoError(t, err, typ.Name())
		assert.Equal(t, typ.NumField(), len(info.fields), "%s has unmapped fields", typ.Name())
	}

	svc := File.Services().ByName("AccessService")
	require.NotNil(t, svc)
	assert.Equal(t, protoreflect.FullName(ServiceName), svc.FullName())
	assert.Equal(t, len(AccessServiceDesc.Methods), svc.Methods().Len())
}

func TestCodec_WireFormat(t *testing.T) {
	exp := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
	data, err := protoCodec{}.Marshal(&GenerateCodeResponse{Code: "287082", RemainingSeconds: 42, ExpiresAt: exp})
	require.NoError(t, err)

	// what a client generated from the schema would decode
	md := File.Messages().ByName("GenerateCodeResponse")
	m := dynamicpb.NewMessage(md)
	require.NoError(t, proto.Unmarshal(data, m))

	fields := md.Fields()
	assert.Equal(t, "287082", m.Get(fields.ByNumber(1)).String())
	assert.Equal(t, int64(42), m.Get(fields.ByNumber(2)).Int())

	raw, err := proto.Marshal(m.Get(fields.ByNumber(3)).Message().Interface())
	require.NoError(t, err)
	ts := &timestamppb.Timestamp{}
	require.NoError(t, proto.Unmarshal(raw, ts))
	assert.True(t, ts.AsTime().Equal(exp))
}

func TestCodec_RoundTrip(t *testing.T) {
	c := protoCodec{}
	verified := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := &ListSessionsResponse{Sessions: []*Session{
		{
			TargetUsername:    "bob",
			TargetDisplayName: "Bob",
			VerifiedAt:        verified,
			ExpiresAt:         verified.Add(time.Hour),
			RemainingSeconds:  3599,
			RemainingMinutes:  59,
		},
		{TargetUsername: "carol", VerifiedAt: verified.Add(-time.Minute), ExpiresAt: verified.Add(59 * time.Minute)},
	}}

	data, err := c.Marshal(in)
	require.NoError(t, err)
	out := &ListSessionsResponse{}
	require.NoError(t, c.Unmarshal(data, out))
	assert.Equal(t, in, out)
}

func TestCodec_OptionalFields(t *testing.T) {
	c := protoCodec{}

	data, err := c.Marshal(&GetSessionResponse{Found: false})
	require.NoError(t, err)
	assert.Empty(t, data)

	out := &GetSessionResponse{Found: true, Session: &Session{TargetUsername: "stale"}}
	require.NoError(t, c.Unmarshal(data, out))
	assert.False(t, out.Found)
	assert.Nil(t, out.Session)

	exp := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	data, err = c.Marshal(&VerifyCodeResponse{Valid: true, ExpiresAt: &exp})
	require.NoError(t, err)
	v := &VerifyCodeResponse{}
	require.NoError(t, c.Unmarshal(data, v))
	require.NotNil(t, v.ExpiresAt)
	assert.True(t, v.ExpiresAt.Equal(exp))
}

func TestCodec_Bytes(t *testing.T) {
	c := protoCodec{}
	in := &RegisterUserRequest{Username: "alice", Salt: []byte{0, 1, 2}, Verifier: []byte("v")}

	data, err := c.Marshal(in)
	require.NoError(t, err)
	out := &RegisterUserRequest{}
	require.NoError(t, c.Unmarshal(data, out))
	assert.Equal(t, in, out)
	assert.Empty(t, out.DisplayName)
}

func TestCodec_ProtoMessagesPassThrough(t *testing.T) {
	c := protoCodec{}
	ts := timestamppb.New(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	data, err := c.Marshal(ts)
	require.NoError(t, err)
	want, err := proto.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	got := &timestamppb.Timestamp{}
	require.NoError(t, c.Unmarshal(data, got))
	assert.True(t, proto.Equal(ts, got))
}

func TestCodec_Errors(t *testing.T) {
	c := protoCodec{}

	type Unknown struct {
		X string `json:"x"`
	}
	_, err := c.Marshal(&Unknown{X: "x"})
	assert.ErrorContains(t, err, "no schema")

	_, err = c.Marshal("text")
	assert.Error(t, err)

	assert.Error(t, c.Unmarshal(nil, PingResponse{}))
	assert.Error(t, c.Unmarshal([]byte{0xff}, &PingResponse{}))
}
