package core

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// DraftFields lists the JSON names of the editable string fields of a draft struct, in declaration order.
func DraftFields(draft interface{}) []string {
	t := reflect.TypeOf(draft)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name, ok := draftFieldName(t.Field(i)); ok {
			names = append(names, name)
		}
	}
	return names
}

// SetField assigns value to the draft field whose JSON name is name.
// Fields tagged `draft:"cpf"` are stored formatted for display.
func SetField(draft interface{}, name, value string) error {
	rv := reflect.ValueOf(draft)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("draft must be a pointer to struct, got %T", draft)
	}
	rv = rv.Elem()
	t := rv.Type()

	for i := 0; i < t.NumField(); i++ {
		fld := t.Field(i)
		if fldName, ok := draftFieldName(fld); !ok || fldName != name {
			continue
		}
		if fld.Tag.Get("draft") == "cpf" {
			value = FormatIDForDisplay(value)
		}
		rv.Field(i).SetString(value)
		return nil
	}
	return errors.Errorf("unknown field %q", name)
}

// GetField reads the draft field whose JSON name is name.
func GetField(draft interface{}, name string) (string, bool) {
	rv := reflect.Indirect(reflect.ValueOf(draft))
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if fldName, ok := draftFieldName(t.Field(i)); ok && fldName == name {
			return rv.Field(i).String(), true
		}
	}
	return "", false
}

func draftFieldName(fld reflect.StructField) (string, bool) {
	if fld.PkgPath != "" || fld.Type.Kind() != reflect.String || fld.Tag.Get("draft") == "-" {
		return "", false
	}
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return "", false
	}
	return name, true
}
