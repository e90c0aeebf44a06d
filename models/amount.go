package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Amount is a cost that is either a number or free text ("$20", "Free", "€10-15").
// The original kind survives JSON and BSON round trips.
type Amount struct {
	num  *float64
	text string
}

func Number(f float64) Amount { return Amount{num: &f} }

func Text(s string) Amount { return Amount{text: strings.TrimSpace(s)} }

func (a Amount) IsZero() bool { return a.num == nil && a.text == "" }

// Float reports the numeric value, if the amount is numeric.
func (a Amount) Float() (float64, bool) {
	if a.num == nil {
		return 0, false
	}
	return *a.num, true
}

func (a Amount) String() string {
	if a.num != nil {
		return strconv.FormatFloat(*a.num, 'f', -1, 64)
	}
	return a.text
}

func (a Amount) MarshalJSON() ([]byte, error) {
	switch {
	case a.num != nil:
		return json.Marshal(*a.num)
	case a.text != "":
		return json.Marshal(a.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is lenient: anything that is neither a number nor a string is kept as its raw text.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Text(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*a = Number(f)
	default:
		*a = Text(string(data))
	}
	return nil
}

func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case a.num != nil:
		return bson.MarshalValue(*a.num)
	case a.text != "":
		return bson.MarshalValue(a.text)
	default:
		return bson.TypeNull, nil, nil
	}
}

func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*a = Amount{}
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeDouble:
		*a = Number(rv.Double())
	case bson.TypeInt32:
		*a = Number(float64(rv.Int32()))
	case bson.TypeInt64:
		*a = Number(float64(rv.Int64()))
	case bson.TypeString:
		*a = Text(rv.StringValue())
	}
	return nil
}
