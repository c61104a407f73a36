// Package inputval validates decoded request bodies and query parameters.
//
// Request structs declare their rules with `validate` tags; failures come
// back as apperr validation errors whose messages use the JSON field names:
//
//	type addFavoriteRequest struct {
//	    CourseID string `json:"courseId" validate:"required,max=64"`
//	    Kind     string `json:"kind" validate:"required,itemkind"`
//	}
package inputval

import (
	"errors"
	"reflect"
	"strings"

	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	objectIDTag  = "objectid"
	objectIDText = "{0} must be a valid id"
	itemKindTag  = "itemkind"
	itemKindText = `{0} must be "note" or "flashcardSet"`
	requiredTag  = "required"
	requiredText = "{0} is required"
	validate     *validator.Validate
	translator   ut.Translator
)

func init() {
	locale := en.New()
	uni := ut.New(locale, locale)
	translator, _ = uni.GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(objectIDTag, func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
	_ = validate.RegisterValidation(itemKindTag, func(fl validator.FieldLevel) bool {
		return models.ItemKind(fl.Field().String()).Valid()
	})

	registerTranslation(objectIDTag, objectIDText, false)
	registerTranslation(itemKindTag, itemKindText, false)
	registerTranslation(requiredTag, requiredText, true)
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fe.Translate(translator))
		}
		return apperr.Validation("%s", strings.Join(msgs, "; "))
	}
	return apperr.Validation("%s", err.Error())
}

// ObjectID parses a hex id taken from a URL or body field.
func ObjectID(field, hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("%s must be a valid id", field)
	}
	return oid, nil
}

// ObjectIDs parses a list of hex ids; the first bad entry fails the call.
func ObjectIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		oid, err := ObjectID(field, h)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// OptionalKind parses the optional ?kind= filter. Empty means "all kinds".
func OptionalKind(raw string) (models.ItemKind, error) {
	if raw == "" {
		return "", nil
	}
	k := models.ItemKind(raw)
	if !k.Valid() {
		return "", apperr.Validation(`kind must be "note" or "flashcardSet"`)
	}
	return k, nil
}
