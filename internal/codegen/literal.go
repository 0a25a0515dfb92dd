package codegen

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/dave/jennifer/jen"

	"github.com/tordrt/modelmigrate/model"
)

var storeGeneratedConsts = map[model.StoreGenerated]string{
	model.StoreGeneratedNone:     "StoreGeneratedNone",
	model.StoreGeneratedIdentity: "StoreGeneratedIdentity",
	model.StoreGeneratedComputed: "StoreGeneratedComputed",
}

// literal renders v, a model or operation value, as a Go expression. Zero
// struct fields are omitted.
func literal(v any) (jen.Code, error) {
	return value(reflect.ValueOf(v))
}

func value(v reflect.Value) (*jen.Statement, error) {
	switch v.Kind() {
	case reflect.Invalid:
		return jen.Nil(), nil

	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return jen.Nil(), nil
		}
		if v.Kind() == reflect.Interface {
			return value(v.Elem())
		}
		elem, err := value(v.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Op("&").Add(elem), nil

	case reflect.Struct:
		t := v.Type()
		dict := jen.Dict{}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() || v.Field(i).IsZero() {
				continue
			}
			code, err := value(v.Field(i))
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name(), field.Name, err)
			}
			dict[jen.Id(field.Name)] = code
		}
		return jen.Qual(t.PkgPath(), t.Name()).Values(dict), nil

	case reflect.Slice:
		if v.IsNil() {
			return jen.Nil(), nil
		}
		typ, err := typeCode(v.Type())
		if err != nil {
			return nil, err
		}
		// Composite elements go one per line.
		multiline := v.Type().Elem().Kind() != reflect.String
		items := make([]jen.Code, 0, v.Len()+1)
		for i := 0; i < v.Len(); i++ {
			item, err := value(v.Index(i))
			if err != nil {
				return nil, err
			}
			if multiline {
				item = jen.Line().Add(item)
			}
			items = append(items, item)
		}
		if multiline {
			items = append(items, jen.Line())
		}
		return typ.Values(items...), nil

	case reflect.Map:
		typ, err := typeCode(v.Type())
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		dict := jen.Dict{}
		for _, k := range keys {
			code, err := value(v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())))
			if err != nil {
				return nil, err
			}
			dict[jen.Lit(k)] = code
		}
		return typ.Values(dict), nil

	case reflect.String:
		if sg, ok := v.Interface().(model.StoreGenerated); ok {
			if name, ok := storeGeneratedConsts[sg]; ok {
				return jen.Qual(modelPkg, name), nil
			}
		}
		if v.Type().PkgPath() != "" {
			return jen.Qual(v.Type().PkgPath(), v.Type().Name()).Call(jen.Lit(v.String())), nil
		}
		return jen.Lit(v.String()), nil

	case reflect.Bool:
		return jen.Lit(v.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Type().PkgPath() != "" {
			return jen.Qual(v.Type().PkgPath(), v.Type().Name()).Call(jen.Lit(int(v.Int()))), nil
		}
		return jen.Lit(int(v.Int())), nil
	}
	return nil, fmt.Errorf("cannot render %s as a Go literal", v.Type())
}

func typeCode(t reflect.Type) (*jen.Statement, error) {
	if t.Name() != "" && t.PkgPath() != "" {
		return jen.Qual(t.PkgPath(), t.Name()), nil
	}
	switch t.Kind() {
	case reflect.Ptr:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case reflect.Slice:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case reflect.Map:
		key, err := typeCode(t.Key())
		if err != nil {
			return nil, err
		}
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(elem), nil
	case reflect.String:
		return jen.String(), nil
	case reflect.Bool:
		return jen.Bool(), nil
	case reflect.Int:
		return jen.Int(), nil
	}
	return nil, fmt.Errorf("cannot render type %s", t)
}
