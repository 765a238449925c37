// Package api defines the public gRPC surface of the access service: the
// request and response messages, the service descriptor and a typed client.
//
// Messages are plain Go structs encoded as protocol buffers against the schema
// in schema.go. Each struct field is matched to the schema field named by its
// json tag. The codec is registered under the default content-subtype "proto",
// so the wire format is what any client generated from the same schema sends.
// Values that already are proto messages are encoded as usual.
package api

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// CodecName is the gRPC content-subtype of the codec.
const CodecName = "proto"

var timeType = reflect.TypeOf(time.Time{})

type protoCodec struct{}

func (protoCodec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case proto.Message:
		return proto.Marshal(m)
	case protoadapt.MessageV1:
		return proto.Marshal(protoadapt.MessageV2Of(m))
	}

	rv, err := structValue(v)
	if err != nil {
		return nil, err
	}
	info, err := infoFor(rv.Type())
	if err != nil {
		return nil, err
	}
	m := dynamicpb.NewMessage(info.desc)
	if err := encodeStruct(rv, m); err != nil {
		return nil, err
	}
	return proto.Marshal(m)
}

func (protoCodec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case proto.Message:
		return proto.Unmarshal(data, m)
	case protoadapt.MessageV1:
		return proto.Unmarshal(data, protoadapt.MessageV2Of(m))
	}

	rv, err := structValue(v)
	if err != nil {
		return err
	}
	if !rv.CanSet() {
		return fmt.Errorf("api: unmarshal into non-pointer %T", v)
	}
	info, err := infoFor(rv.Type())
	if err != nil {
		return err
	}
	m := dynamicpb.NewMessage(info.desc)
	if err := proto.Unmarshal(data, m); err != nil {
		return err
	}
	rv.Set(reflect.Zero(rv.Type()))
	return decodeStruct(m, rv)
}

func (protoCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(protoCodec{})
}

// structValue dereferences v down to the struct it points at. A nil pointer
// yields an empty, unsettable struct value.
func structValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(rv.Type().Elem()), nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("api: cannot encode %T", v)
	}
	return rv, nil
}

type fieldInfo struct {
	index int
	fd    protoreflect.FieldDescriptor
}

type messageInfo struct {
	desc   protoreflect.MessageDescriptor
	fields []fieldInfo
}

var infos sync.Map // reflect.Type -> *messageInfo

// infoFor pairs the fields of struct type t with the schema message of the
// same name.
func infoFor(t reflect.Type) (*messageInfo, error) {
	if v, ok := infos.Load(t); ok {
		return v.(*messageInfo), nil
	}

	md := File.Messages().ByName(protoreflect.Name(t.Name()))
	if md == nil {
		return nil, fmt.Errorf("api: no schema for %s", t)
	}
	info := &messageInfo{desc: md}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		fd := md.Fields().ByName(protoreflect.Name(name))
		if fd == nil {
			return nil, fmt.Errorf("api: %s.%s has no field %q in %s", t.Name(), sf.Name, name, md.FullName())
		}
		info.fields = append(info.fields, fieldInfo{index: i, fd: fd})
	}

	v, _ := infos.LoadOrStore(t, info)
	return v.(*messageInfo), nil
}

func encodeStruct(rv reflect.Value, m protoreflect.Message) error {
	info, err := infoFor(rv.Type())
	if err != nil {
		return err
	}
	for _, f := range info.fields {
		if err := encodeField(m, f.fd, rv.Field(f.index)); err != nil {
			return err
		}
	}
	return nil
}

func encodeField(m protoreflect.Message, fd protoreflect.FieldDescriptor, fv reflect.Value) error {
	if fd.IsList() {
		if fv.Kind() != reflect.Slice {
			return mismatch(fd, fv.Type())
		}
		if fv.Len() == 0 {
			return nil
		}
		list := m.Mutable(fd).List()
		for i := 0; i < fv.Len(); i++ {
			v, ok, err := toValue(fd, fv.Index(i), list.NewElement)
			if err != nil {
				return err
			}
			if ok {
				list.Append(v)
			}
		}
		return nil
	}

	v, ok, err := toValue(fd, fv, func() protoreflect.Value { return m.NewField(fd) })
	if err != nil || !ok {
		return err
	}
	m.Set(fd, v)
	return nil
}

// toValue converts one Go value. ok is false for values that stay unset on the
// wire: nil pointers, zero times and empty byte slices.
func toValue(fd protoreflect.FieldDescriptor, fv reflect.Value, newMessage func() protoreflect.Value) (v protoreflect.Value, ok bool, err error) {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return v, false, nil
		}
		fv = fv.Elem()
	}

	switch fd.Kind() {
	case protoreflect.StringKind:
		if fv.Kind() == reflect.String {
			return protoreflect.ValueOfString(fv.String()), true, nil
		}
	case protoreflect.BytesKind:
		if fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.Uint8 {
			return protoreflect.ValueOfBytes(fv.Bytes()), fv.Len() > 0, nil
		}
	case protoreflect.BoolKind:
		if fv.Kind() == reflect.Bool {
			return protoreflect.ValueOfBool(fv.Bool()), true, nil
		}
	case protoreflect.Int64Kind:
		if fv.CanInt() {
			return protoreflect.ValueOfInt64(fv.Int()), true, nil
		}
	case protoreflect.MessageKind:
		if fv.Type() == timeType {
			t := fv.Interface().(time.Time)
			if t.IsZero() {
				return v, false, nil
			}
			return protoreflect.ValueOfMessage(timestamppb.New(t).ProtoReflect()), true, nil
		}
		if fv.Kind() == reflect.Struct {
			v = newMessage()
			if err := encodeStruct(fv, v.Message()); err != nil {
				return v, false, err
			}
			return v, true, nil
		}
	}
	return v, false, mismatch(fd, fv.Type())
}

func decodeStruct(m protoreflect.Message, rv reflect.Value) error {
	info, err := infoFor(rv.Type())
	if err != nil {
		return err
	}
	for _, f := range info.fields {
		if err := decodeField(m, f.fd, rv.Field(f.index)); err != nil {
			return err
		}
	}
	return nil
}

func decodeField(m protoreflect.Message, fd protoreflect.FieldDescriptor, fv reflect.Value) error {
	if fd.IsList() {
		list := m.Get(fd).List()
		if list.Len() == 0 {
			return nil
		}
		if fv.Kind() != reflect.Slice {
			return mismatch(fd, fv.Type())
		}
		out := reflect.MakeSlice(fv.Type(), list.Len(), list.Len())
		for i := 0; i < list.Len(); i++ {
			if err := fromValue(fd, list.Get(i), out.Index(i)); err != nil {
				return err
			}
		}
		fv.Set(out)
		return nil
	}

	if fd.HasPresence() && !m.Has(fd) {
		return nil
	}
	return fromValue(fd, m.Get(fd), fv)
}

func fromValue(fd protoreflect.FieldDescriptor, pv protoreflect.Value, fv reflect.Value) error {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}

	switch fd.Kind() {
	case protoreflect.StringKind:
		if fv.Kind() == reflect.String {
			fv.SetString(pv.String())
			return nil
		}
	case protoreflect.BytesKind:
		if fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.Uint8 {
			if b := pv.Bytes(); len(b) > 0 {
				fv.SetBytes(append([]byte(nil), b...))
			}
			return nil
		}
	case protoreflect.BoolKind:
		if fv.Kind() == reflect.Bool {
			fv.SetBool(pv.Bool())
			return nil
		}
	case protoreflect.Int64Kind:
		if fv.CanInt() {
			fv.SetInt(pv.Int())
			return nil
		}
	case protoreflect.MessageKind:
		if fv.Type() == timeType {
			fv.Set(reflect.ValueOf(asTime(pv.Message())))
			return nil
		}
		if fv.Kind() == reflect.Struct {
			return decodeStruct(pv.Message(), fv)
		}
	}
	return mismatch(fd, fv.Type())
}

// asTime reads a google.protobuf.Timestamp whether it was decoded as the
// generated type or dynamically.
func asTime(m protoreflect.Message) time.Time {
	fields := m.Descriptor().Fields()
	ts := &timestamppb.Timestamp{
		Seconds: m.Get(fields.ByName("seconds")).Int(),
		Nanos:   int32(m.Get(fields.ByName("nanos")).Int()),
	}
	return ts.AsTime()
}

func mismatch(fd protoreflect.FieldDescriptor, t reflect.Type) error {
	return fmt.Errorf("api: %s (%s) does not fit %s", fd.FullName(), fd.Kind(), t)
}
