// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package typedjson allows encoding and decoding bash syntax trees as JSON.
// The decoding process needs to know what syntax node types to decode into,
// so the "typed JSON" requires "Type" keys in some syntax tree node objects:
//
//   - The root node
//   - Any node represented as an interface field in the parent Go type
//
// The types of all other nodes can be inferred from context alone.
//
// For the sake of efficiency and simplicity, the "Type" key
// described above must be first in each JSON object.
package typedjson

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/parable-parser/parable/syntax"
)

// Encode is a shortcut for EncodeOptions.Encode, with the default options.
func Encode(w io.Writer, node syntax.Node) error {
	return EncodeOptions{}.Encode(w, node)
}

// EncodeOptions allows configuring how syntax nodes are encoded.
type EncodeOptions struct {
	Indent string // e.g. "\t"

	// Allows us to add options later.
}

// Encode writes node to w in its typed JSON form,
// as described in the package documentation.
func (opts EncodeOptions) Encode(w io.Writer, node syntax.Node) error {
	val := reflect.ValueOf(node)
	encVal, tname := encodeValue(val)
	if tname == "" {
		panic("node did not contain a named type?")
	}
	encVal.Elem().Field(0).SetString(tname)
	enc := json.NewEncoder(w)
	if opts.Indent != "" {
		enc.SetIndent("", opts.Indent)
	}
	return enc.Encode(encVal.Interface())
}

func encodeValue(val reflect.Value) (reflect.Value, string) {
	switch val.Kind() {
	case reflect.Ptr:
		if val.IsNil() {
			break
		}
		return encodeValue(val.Elem())
	case reflect.Interface:
		if val.IsNil() {
			break
		}
		enc, tname := encodeValue(val.Elem())
		if tname == "" {
			panic("interface did not contain a named type?")
		}
		enc.Elem().Field(0).SetString(tname)
		return enc, ""
	case reflect.Struct:
		// Construct a new struct with an optional Type, and then all the
		// exported fields.
		typ := val.Type()
		fields := []reflect.StructField{typeField}
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			fields = append(fields, reflect.StructField{
				Name: field.Name,
				Type: anyType,
				Tag:  `json:",omitempty"`,
			})
		}
		encTyp := reflect.StructOf(fields)
		enc := reflect.New(encTyp).Elem()
		for i := 1; i < encTyp.NumField(); i++ {
			fval := val.FieldByName(encTyp.Field(i).Name)
			encElem, _ := encodeValue(fval)
			if encElem.IsValid() {
				enc.Field(i).Set(encElem)
			}
		}

		// Addr helps prevent an allocation as we use interface{} fields.
		return enc.Addr(), typ.Name()
	case reflect.Slice:
		n := val.Len()
		if n == 0 {
			break
		}
		enc := reflect.MakeSlice(anySliceType, n, n)
		for i := 0; i < n; i++ {
			elem := val.Index(i)
			encElem, _ := encodeValue(elem)
			enc.Index(i).Set(encElem)
		}
		return enc, ""
	case reflect.Bool:
		if val.Bool() {
			return val, ""
		}
	case reflect.String:
		if val.String() != "" {
			return val, ""
		}
	case reflect.Int:
		if val.Int() != 0 {
			return val, ""
		}
	default:
		panic(val.Kind().String())
	}
	return noValue, ""
}

var (
	noValue reflect.Value

	anyType      = reflect.TypeOf((*interface{})(nil)).Elem() // interface{}
	anySliceType = reflect.SliceOf(anyType)                   // []interface{}

	typeField = reflect.StructField{
		Name: "Type",
		Type: reflect.TypeOf((*string)(nil)).Elem(),
		Tag:  `json:",omitempty"`,
	}
)

// Decode is a shortcut for DecodeOptions.Decode, with the default options.
func Decode(r io.Reader) (syntax.Node, error) {
	return DecodeOptions{}.Decode(r)
}

// DecodeOptions allows configuring how syntax nodes are encoded.
type DecodeOptions struct {
	// Empty for now; allows us to add options later.
}

// Decode writes node to w in its typed JSON form,
// as described in the package documentation.
func (opts DecodeOptions) Decode(r io.Reader) (syntax.Node, error) {
	var enc interface{}
	if err := json.NewDecoder(r).Decode(&enc); err != nil {
		return nil, err
	}
	node := new(syntax.Node)
	if err := decodeValue(reflect.ValueOf(node).Elem(), enc); err != nil {
		return nil, err
	}
	return *node, nil
}

var nodeByName = map[string]reflect.Type{
	"Word":     reflect.TypeOf((*syntax.Word)(nil)).Elem(),
	"CallExpr": reflect.TypeOf((*syntax.CallExpr)(nil)).Elem(),
	"Pipeline": reflect.TypeOf((*syntax.Pipeline)(nil)).Elem(),
	"List":     reflect.TypeOf((*syntax.List)(nil)).Elem(),
	"Operator": reflect.TypeOf((*syntax.Operator)(nil)).Elem(),
	"Empty":    reflect.TypeOf((*syntax.Empty)(nil)).Elem(),
	"Redirect": reflect.TypeOf((*syntax.Redirect)(nil)).Elem(),
	"HereDoc":  reflect.TypeOf((*syntax.HereDoc)(nil)).Elem(),

	"Subshell":     reflect.TypeOf((*syntax.Subshell)(nil)).Elem(),
	"Block":        reflect.TypeOf((*syntax.Block)(nil)).Elem(),
	"IfClause":     reflect.TypeOf((*syntax.IfClause)(nil)).Elem(),
	"WhileClause":  reflect.TypeOf((*syntax.WhileClause)(nil)).Elem(),
	"UntilClause":  reflect.TypeOf((*syntax.UntilClause)(nil)).Elem(),
	"ForClause":    reflect.TypeOf((*syntax.ForClause)(nil)).Elem(),
	"CStyleLoop":   reflect.TypeOf((*syntax.CStyleLoop)(nil)).Elem(),
	"SelectClause": reflect.TypeOf((*syntax.SelectClause)(nil)).Elem(),
	"CaseClause":   reflect.TypeOf((*syntax.CaseClause)(nil)).Elem(),
	"CaseItem":     reflect.TypeOf((*syntax.CaseItem)(nil)).Elem(),
	"FuncDecl":     reflect.TypeOf((*syntax.FuncDecl)(nil)).Elem(),
	"CoprocClause": reflect.TypeOf((*syntax.CoprocClause)(nil)).Elem(),
	"Negation":     reflect.TypeOf((*syntax.Negation)(nil)).Elem(),
	"TimeClause":   reflect.TypeOf((*syntax.TimeClause)(nil)).Elem(),
	"ArithmCmd":    reflect.TypeOf((*syntax.ArithmCmd)(nil)).Elem(),
	"TestClause":   reflect.TypeOf((*syntax.TestClause)(nil)).Elem(),

	"ParamExp":        reflect.TypeOf((*syntax.ParamExp)(nil)).Elem(),
	"ParamLen":        reflect.TypeOf((*syntax.ParamLen)(nil)).Elem(),
	"ParamIndirect":   reflect.TypeOf((*syntax.ParamIndirect)(nil)).Elem(),
	"CmdSubst":        reflect.TypeOf((*syntax.CmdSubst)(nil)).Elem(),
	"ArithmExp":       reflect.TypeOf((*syntax.ArithmExp)(nil)).Elem(),
	"ArithDeprecated": reflect.TypeOf((*syntax.ArithDeprecated)(nil)).Elem(),
	"AnsiCQuote":      reflect.TypeOf((*syntax.AnsiCQuote)(nil)).Elem(),
	"LocaleString":    reflect.TypeOf((*syntax.LocaleString)(nil)).Elem(),
	"ProcSubst":       reflect.TypeOf((*syntax.ProcSubst)(nil)).Elem(),
	"ArrayExpr":       reflect.TypeOf((*syntax.ArrayExpr)(nil)).Elem(),

	"ArithNumber":    reflect.TypeOf((*syntax.ArithNumber)(nil)).Elem(),
	"ArithEmpty":     reflect.TypeOf((*syntax.ArithEmpty)(nil)).Elem(),
	"ArithVar":       reflect.TypeOf((*syntax.ArithVar)(nil)).Elem(),
	"BinaryArithm":   reflect.TypeOf((*syntax.BinaryArithm)(nil)).Elem(),
	"UnaryArithm":    reflect.TypeOf((*syntax.UnaryArithm)(nil)).Elem(),
	"ArithAssign":    reflect.TypeOf((*syntax.ArithAssign)(nil)).Elem(),
	"ArithTernary":   reflect.TypeOf((*syntax.ArithTernary)(nil)).Elem(),
	"ArithComma":     reflect.TypeOf((*syntax.ArithComma)(nil)).Elem(),
	"ArithSubscript": reflect.TypeOf((*syntax.ArithSubscript)(nil)).Elem(),
	"ArithEscape":    reflect.TypeOf((*syntax.ArithEscape)(nil)).Elem(),
	"ArithConcat":    reflect.TypeOf((*syntax.ArithConcat)(nil)).Elem(),

	"UnaryTest":  reflect.TypeOf((*syntax.UnaryTest)(nil)).Elem(),
	"BinaryTest": reflect.TypeOf((*syntax.BinaryTest)(nil)).Elem(),
	"CondAnd":    reflect.TypeOf((*syntax.CondAnd)(nil)).Elem(),
	"CondOr":     reflect.TypeOf((*syntax.CondOr)(nil)).Elem(),
	"CondNot":    reflect.TypeOf((*syntax.CondNot)(nil)).Elem(),
	"ParenTest":  reflect.TypeOf((*syntax.ParenTest)(nil)).Elem(),
}

func decodeValue(val reflect.Value, enc interface{}) error {
	switch enc := enc.(type) {
	case map[string]interface{}:
		if val.Kind() == reflect.Ptr && val.IsNil() {
			val.Set(reflect.New(val.Type().Elem()))
		}
		if typeName, _ := enc["Type"].(string); typeName != "" {
			typ := nodeByName[typeName]
			if typ == nil {
				return fmt.Errorf("unknown type: %q", typeName)
			}
			val.Set(reflect.New(typ))
		}
		for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
			val = val.Elem()
		}
		for name, fv := range enc {
			fval := val.FieldByName(name)
			if name == "Type" {
				continue
			}
			if !fval.IsValid() || !fval.CanSet() {
				return fmt.Errorf("unknown field for %s: %q", val.Type(), name)
			}
			if err := decodeValue(fval, fv); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, encElem := range enc {
			elem := reflect.New(val.Type().Elem()).Elem()
			if err := decodeValue(elem, encElem); err != nil {
				return err
			}
			val.Set(reflect.Append(val, elem))
		}
	case float64:
		// File descriptors are ints, but encoding/json defaults to float64.
		if val.Kind() != reflect.Int {
			return fmt.Errorf("cannot decode number into %s", val.Type())
		}
		val.SetInt(int64(enc))
	default:
		if enc != nil {
			ev := reflect.ValueOf(enc)
			if !ev.Type().AssignableTo(val.Type()) {
				return fmt.Errorf("cannot decode %T into %s", enc, val.Type())
			}
			val.Set(ev)
		}
	}
	return nil
}
