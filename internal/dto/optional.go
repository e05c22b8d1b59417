package dto

import (
	"bytes"
	"encoding/json"
)

// Optional 区分 JSON 字段"未提供"、"显式 null"与"提供了值"
//
//	{}                 → Set=false
//	{"field": null}    → Set=true, Null=true
//	{"field": ""}      → Set=true, Value=""
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some 构造已提供值的 Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null 构造显式 null 的 Optional
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON 仅在字段出现时被调用，因此 Set 可以可靠地表示"已提供"
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON 未提供或 null 均输出 null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Get 返回值以及是否提供了非 null 值
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set && !o.Null
}
