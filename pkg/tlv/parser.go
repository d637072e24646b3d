// Package tlv maps BER-TLV (Tag-Length-Value) data found on UICC cards,
// such as FCP templates and EF_DIR records, into Go structures using struct tags.
//
// Field tags:
//
//	tlv:"84"          the field receives the value of tag 84
//	tlv:",unknown"    the field ([]bertlv.TLV) collects tags no other field claimed
//	fmt:"ascii"       a string field receives the raw text instead of upper-case hex
//
// Supported field kinds are []byte, string, unsigned/signed integers (big-endian),
// nested structs (constructed tags) and slices of those for repeated tags.
package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal parses raw BER-TLV data and maps it into a target Go struct.
func Unmarshal(data []byte, target interface{}) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps a slice of pre-decoded bertlv.TLV objects to a target struct.
// Repeated occurrences of a tag are appended when the target field is a slice.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %s", v.Kind())
	}
	t := v.Type()

	consumed := make(map[int]bool)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		tagConfig := fieldType.Tag.Get("tlv")

		if tagConfig == "" || isUnknownTag(tagConfig) {
			continue
		}

		tagHex := strings.ToUpper(strings.Split(tagConfig, ",")[0])
		ascii := fieldType.Tag.Get("fmt") == "ascii"

		for idx, packet := range packets {
			if !strings.EqualFold(packet.Tag, tagHex) {
				continue
			}
			if err := mapPacketToField(packet, field, ascii); err != nil {
				return fmt.Errorf("tag %s (%s): %w", tagHex, fieldType.Name, err)
			}
			consumed[idx] = true
		}
	}

	collectUnknown(v, t, packets, consumed)
	return nil
}

func mapPacketToField(packet bertlv.TLV, field reflect.Value, ascii bool) error {
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeToValue(packet, elem, ascii); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}

	return decodeToValue(packet, field, ascii)
}

func decodeToValue(packet bertlv.TLV, field reflect.Value, ascii bool) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawData(packet))
		}
	}

	switch {
	case isByteSlice(field):
		field.SetBytes(rawData(packet))
		return nil

	case field.Kind() == reflect.String:
		if ascii {
			field.SetString(string(packet.Value))
		} else {
			field.SetString(strings.ToUpper(hex.EncodeToString(packet.Value)))
		}
		return nil

	case isUint(field.Kind()):
		if len(packet.Value) > 8 {
			return fmt.Errorf("integer value too long: %d bytes", len(packet.Value))
		}
		field.SetUint(bigEndian(packet.Value))
		return nil

	case isInt(field.Kind()):
		if len(packet.Value) > 8 {
			return fmt.Errorf("integer value too long: %d bytes", len(packet.Value))
		}
		field.SetInt(int64(bigEndian(packet.Value)))
		return nil

	case isStructOrPtrToStruct(field):
		target := structTarget(field)
		if len(packet.TLVs) > 0 {
			return UnmarshalFromPackets(packet.TLVs, target.Interface())
		}
		if len(packet.Value) == 0 {
			return nil
		}
		return Unmarshal(packet.Value, target.Interface())
	}

	return nil
}

func collectUnknown(v reflect.Value, t reflect.Type, packets []bertlv.TLV, consumed map[int]bool) {
	field, found := unknownField(v, t)
	if !found || !field.CanSet() {
		return
	}

	var leftovers []bertlv.TLV
	for idx, packet := range packets {
		if !consumed[idx] {
			leftovers = append(leftovers, packet)
		}
	}

	if len(leftovers) > 0 {
		field.Set(reflect.ValueOf(leftovers))
	}
}

func unknownField(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	for i := 0; i < v.NumField(); i++ {
		if isUnknownTag(t.Field(i).Tag.Get("tlv")) && t.Field(i).Type == reflect.TypeOf([]bertlv.TLV{}) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func isUnknownTag(cfg string) bool {
	return cfg == ",unknown"
}

// rawData returns the value bytes, re-encoding children of constructed tags.
func rawData(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

func bigEndian(b []byte) uint64 {
	var n uint64
	for _, x := range b {
		n = n<<8 | uint64(x)
	}
	return n
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isStructOrPtrToStruct(v reflect.Value) bool {
	if v.Kind() == reflect.Struct {
		return true
	}
	return v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.Struct
}

func structTarget(field reflect.Value) reflect.Value {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return field
	}
	return field.Addr()
}
