package api

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// SchemaPath is the registered path of the service schema. In .proto form:
//
//	syntax = "proto3";
//	package totpgate;
//	import "google/protobuf/timestamp.proto";
//
//	message GenerateCodeResponse {
//	  string code = 1;
//	  int64 remaining_seconds = 2;
//	  google.protobuf.Timestamp expires_at = 3;
//	}
//	...
//	service AccessService { rpc Ping(PingRequest) returns (PingResponse); ... }
const SchemaPath = "totpgate/access.proto"

const schemaPackage = "totpgate"

// File describes every message and the service of the API. It is also
// registered in protoregistry.GlobalFiles, which is what server reflection
// serves to tools like grpcurl.
var File protoreflect.FileDescriptor

type fieldType = descriptorpb.FieldDescriptorProto_Type

const (
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)

const timestampType = ".google.protobuf.Timestamp"

func scalar(name string, num int32, typ fieldType) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func message(name string, num int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := scalar(name, num, tMessage)
	f.TypeName = proto.String(typeName)
	return f
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func msg(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func rpc(method string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(method),
		InputType:  proto.String("." + schemaPackage + "." + method + "Request"),
		OutputType: proto.String("." + schemaPackage + "." + method + "Response"),
	}
}

func schema() *descriptorpb.FileDescriptorProto {
	session := "." + schemaPackage + ".Session"

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(SchemaPath),
		Package:    proto.String(schemaPackage),
		Syntax:     proto.String("proto3"),
		Dependency: []string{timestamppb.File_google_protobuf_timestamp_proto.Path()},
		MessageType: []*descriptorpb.DescriptorProto{
			msg("PingRequest"),
			msg("PingResponse", scalar("status", 1, tString)),
			msg("RegisterUserRequest",
				scalar("username", 1, tString),
				scalar("display_name", 2, tString),
				scalar("salt", 3, tBytes),
				scalar("verifier", 4, tBytes),
			),
			msg("RegisterUserResponse", scalar("user_id", 1, tString)),
			msg("GetSaltRequest", scalar("username", 1, tString)),
			msg("GetSaltResponse", scalar("salt", 1, tBytes)),
			msg("LoginRequest",
				scalar("username", 1, tString),
				scalar("verifier_candidate", 2, tBytes),
			),
			msg("LoginResponse",
				scalar("access_token", 1, tString),
				scalar("refresh_token", 2, tString),
			),
			msg("RefreshTokenRequest", scalar("refresh_token", 1, tString)),
			msg("RefreshTokenResponse",
				scalar("access_token", 1, tString),
				scalar("refresh_token", 2, tString),
			),
			msg("GenerateCodeRequest", scalar("username", 1, tString)),
			msg("GenerateCodeResponse",
				scalar("code", 1, tString),
				scalar("remaining_seconds", 2, tInt64),
				message("expires_at", 3, timestampType),
			),
			msg("VerifyCodeRequest",
				scalar("username", 1, tString),
				scalar("code", 2, tString),
			),
			msg("VerifyCodeResponse",
				scalar("valid", 1, tBool),
				scalar("message", 2, tString),
				scalar("validity_seconds", 3, tInt64),
				scalar("remaining_seconds", 4, tInt64),
				message("expires_at", 5, timestampType),
			),
			msg("Session",
				scalar("target_username", 1, tString),
				scalar("target_display_name", 2, tString),
				message("verified_at", 3, timestampType),
				message("expires_at", 4, timestampType),
				scalar("remaining_seconds", 5, tInt64),
				scalar("remaining_minutes", 6, tInt64),
			),
			msg("ListSessionsRequest"),
			msg("ListSessionsResponse", repeated(message("sessions", 1, session))),
			msg("GetSessionRequest", scalar("username", 1, tString)),
			msg("GetSessionResponse",
				scalar("found", 1, tBool),
				message("session", 2, session),
			),
			msg("GetProfileRequest", scalar("username", 1, tString)),
			msg("GetProfileResponse",
				scalar("username", 1, tString),
				scalar("display_name", 2, tString),
				scalar("remaining_minutes", 3, tInt64),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("AccessService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				rpc(MethodPing),
				rpc(MethodRegisterUser),
				rpc(MethodGetSalt),
				rpc(MethodLogin),
				rpc(MethodRefreshToken),
				rpc(MethodGenerateCode),
				rpc(MethodVerifyCode),
				rpc(MethodListSessions),
				rpc(MethodGetSession),
				rpc(MethodGetProfile),
			},
		}},
	}
}

func init() {
	fd, err := protodesc.NewFile(schema(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("api: build schema: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("api: register schema: %v", err))
	}
	File = fd
}
