package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// swagger:model LearningStyle
type LearningStyle struct {
	ID              string   `bson:"_id,omitempty" json:"id"`
	Name            string   `bson:"name" json:"name"`
	ShortName       *string  `bson:"shortName,omitempty" json:"shortName,omitempty"`
	Description     string   `bson:"description" json:"description"`
	Characteristics TextList `bson:"characteristics" json:"characteristics"`
	Recommendations TextList `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
}

// TextList is an ordered list of lines. It decodes from either a list of strings or a single
// newline-delimited string, and always encodes as a list.
type TextList []string

// SplitLines breaks s on newlines, trims each line and drops empty ones.
func SplitLines(s string) TextList {
	parts := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make(TextList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (t *TextList) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: typ, Value: data}
	switch typ {
	case bson.TypeNull, bson.TypeUndefined:
		*t = nil
	case bson.TypeString:
		*t = SplitLines(rv.StringValue())
	case bson.TypeArray:
		values, err := rv.Array().Values()
		if err != nil {
			return err
		}
		out := make(TextList, 0, len(values))
		for _, v := range values {
			if s, ok := v.StringValueOK(); ok {
				out = append(out, s)
			}
		}
		*t = out
	default:
		return fmt.Errorf("cannot decode %s into a text list", typ)
	}
	return nil
}

func (t *TextList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = SplitLines(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("text list must be a string or a list of strings: %w", err)
	}
	*t = list
	return nil
}

// LearningStyleSummary counts users by whether a style has been assigned.
type LearningStyleSummary struct {
	TotalUsers int `json:"totalUsers"`
	Assigned   int `json:"assigned"`
	Pending    int `json:"pending"`
}
