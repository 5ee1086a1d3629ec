package models

import (
	"bytes"
	"encoding/json"
)

// Shape is the suit of a Whot card.
type Shape string

const (
	ShapeCircle   Shape = "circle"
	ShapeTriangle Shape = "triangle"
	ShapeCross    Shape = "cross"
	ShapeSquare   Shape = "square"
	ShapeStar     Shape = "star"
	ShapeWhot     Shape = "whot"
)

// Card is a card as the client encoded it. The server only deals cards and peeks at their
// shape; every other key a client puts on a card travels through untouched.
type Card struct {
	raw json.RawMessage
}

type cardFace struct {
	Shape  Shape `json:"shape"`
	Number int   `json:"number"`
}

// NewCard builds a card in the server's own encoding.
func NewCard(shape Shape, number int) Card {
	raw, _ := json.Marshal(cardFace{Shape: shape, Number: number})
	return Card{raw: raw}
}

// Shape is empty when the client's encoding carries no string shape.
func (c Card) Shape() Shape {
	var v struct {
		Shape Shape `json:"shape"`
	}
	_ = json.Unmarshal(c.raw, &v)
	return v.Shape
}

// Number is zero when the client's encoding carries no integer number.
func (c Card) Number() int {
	var v struct {
		Number int `json:"number"`
	}
	_ = json.Unmarshal(c.raw, &v)
	return v.Number
}

// IsWhot reports whether the card is one of the wildcard Whot 20s.
func (c Card) IsWhot() bool {
	return c.Shape() == ShapeWhot
}

func (c Card) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

func (c *Card) UnmarshalJSON(b []byte) error {
	c.raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	return nil
}
