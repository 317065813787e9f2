package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CellKind tags the value held by a Cell.
type CellKind uint8

const (
	CellString CellKind = iota + 1
	CellNumber
	CellInteger
)

// Cell is one value in a compact payload row. It is a string, a float or
// an integer, and encodes as the bare JSON value.
type Cell struct {
	kind CellKind
	s    string
	f    float64
	i    int64
}

func StringCell(s string) Cell { return Cell{kind: CellString, s: s} }
func NumberCell(f float64) Cell { return Cell{kind: CellNumber, f: f} }
func IntegerCell(i int64) Cell { return Cell{kind: CellInteger, i: i} }
func (c Cell) Kind() CellKind { return c.kind }
func (c Cell) Str() string { return c.s }
func (c Cell) Number() float64 { return c.f }
func (c Cell) Integer() int64 { return c.i }

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellString:
		return json.Marshal(c.s)
	case CellNumber:
		return json.Marshal(c.f)
	case CellInteger:
		return []byte(strconv.FormatInt(c.i, 10)), nil
	default:
		return nil, fmt.Errorf("cell has no value")
	}
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty cell")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = StringCell(s)
		return nil
	}
	if !bytes.ContainsAny(data, ".eE") {
		if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			*c = IntegerCell(i)
			return nil
		}
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("cell is neither string nor number: %s", data)
	}
	*c = NumberCell(f)
	return nil
}

// PayloadColumns is the fixed header of every compact row.
var PayloadColumns = []string{"date", "open", "close", "high", "low", "volume"}

type PayloadSeries struct {
	Daily   [][]Cell `json:"daily"`
	Monthly [][]Cell `json:"monthly"`
}

type PayloadNews struct {
	Title string `json:"title"`
}

type PayloadSentiment struct {
	VIX               float64 `json:"vix"`
	FearAndGreedIndex float64 `json:"fearAndGreedIndex"`
}

// CompactPayload is the column-oriented document sent to the analyst model.
type CompactPayload struct {
	Columns         []string         `json:"columns"`
	CurrentPrice    float64          `json:"currentPrice"`
	Data            PayloadSeries    `json:"data"`
	News            []PayloadNews    `json:"news"`
	MarketSentiment PayloadSentiment `json:"marketSentiment"`
}
