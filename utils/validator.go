package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

// newValidate 创建验证器，错误中的字段名使用表单名（form tag）
func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldMessages 表单字段 -> 字段为空时的提示
type FieldMessages map[string]string

// ValidateRequired 校验结构体中标记为 required 的字段
// 所有字段都会被检查，按字段声明顺序返回提示，空切片表示通过
func ValidateRequired(obj interface{}, messages FieldMessages) []Message {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []Message{Danger(err.Error())}
	}

	out := make([]Message, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = fe.Field() + " no puede estar vacío."
		}
		out = append(out, Danger(msg))
	}
	return out
}
