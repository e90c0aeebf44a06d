package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRef points at a user. It is either a bare reference (id only) or an expanded record
// carrying display fields. Compare refs with Key or NormalizeID, never with ==.
type UserRef struct {
	ID     string
	Name   string
	Email  string
	Avatar string

	expanded bool
}

func Reference(id string) UserRef {
	return UserRef{ID: strings.TrimSpace(id)}
}

func Expanded(id, name, email, avatar string) UserRef {
	return UserRef{ID: strings.TrimSpace(id), Name: name, Email: email, Avatar: avatar, expanded: true}
}

func (r UserRef) IsExpanded() bool { return r.expanded }

// Key is the normalized identifier of the ref, whichever variant it is.
func (r UserRef) Key() string { return strings.TrimSpace(r.ID) }

// Is reports whether the ref and v denote the same user.
func (r UserRef) Is(v any) bool {
	k := r.Key()
	return k != "" && k == NormalizeID(v)
}

// NormalizeID extracts the identifier from any of the forms a user id travels in.
func NormalizeID(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case UserRef:
		return x.Key()
	case *UserRef:
		if x == nil {
			return ""
		}
		return x.Key()
	case User:
		return strings.TrimSpace(x.UserID)
	case *User:
		if x == nil {
			return ""
		}
		return strings.TrimSpace(x.UserID)
	case primitive.ObjectID:
		return x.Hex()
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

type userRefDoc struct {
	ID     string `json:"id,omitempty" bson:"id,omitempty"`
	UserID string `json:"userid,omitempty" bson:"userid,omitempty"`
	OID    string `json:"_id,omitempty" bson:"-"`
	Name   string `json:"name,omitempty" bson:"name,omitempty"`
	Email  string `json:"email,omitempty" bson:"email,omitempty"`
	Avatar string `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

func (d userRefDoc) ref() UserRef {
	id := d.ID
	if id == "" {
		id = d.UserID
	}
	if id == "" {
		id = d.OID
	}
	return Expanded(id, d.Name, d.Email, d.Avatar)
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if !r.expanded {
		return json.Marshal(r.Key())
	}
	return json.Marshal(struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Avatar string `json:"avatar,omitempty"`
	}{r.Key(), r.Name, r.Email, r.Avatar})
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = UserRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Reference(id)
		return nil
	}
	var doc userRefDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("user reference: %w", err)
	}
	*r = doc.ref()
	return nil
}

// MarshalBSONValue always persists the bare id; display fields are resolved at read time.
func (r UserRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.Key())
}

func (r *UserRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeString:
		*r = Reference(rv.StringValue())
	case bson.TypeObjectID:
		*r = Reference(rv.ObjectID().Hex())
	case bson.TypeEmbeddedDocument:
		var doc userRefDoc
		if err := bson.Unmarshal(data, &doc); err != nil {
			return err
		}
		if oid, ok := rv.Document().Lookup("_id").StringValueOK(); ok && doc.ID == "" && doc.UserID == "" {
			doc.OID = oid
		}
		*r = doc.ref()
	case bson.TypeNull, bson.TypeUndefined:
		*r = UserRef{}
	default:
		return fmt.Errorf("user reference: unsupported bson type %s", t)
	}
	return nil
}
