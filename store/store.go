// Package store persists session variables across runs in a bolt
// database, so a calculator file picks up where it left off.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"nlcalc/currency"
	"nlcalc/eval"
	"nlcalc/unit"
	"nlcalc/value"
)

const bucketVariables = "variables"

// Store is a handle to the on-disk database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures the
// variable bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketVariables))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// record is the stored form of one variable. Seq preserves the
// first-assignment ordering across the round trip.
type record struct {
	Seq    int    `json:"seq"`
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
	Code   string `json:"code,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

// SaveVariables replaces the stored variable set.
func (s *Store) SaveVariables(vars []eval.NamedValue) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketVariables)); err != nil {
			return err
		}
		b, err := tx.CreateBucket([]byte(bucketVariables))
		if err != nil {
			return err
		}
		for i, nv := range vars {
			rec, ok := encode(i, nv.Value)
			if !ok {
				continue
			}
			bytes, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(nv.Name), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadVariables reads the stored variable set in first-assignment
// order. Records that no longer decode (a renamed unit, say) are
// skipped.
func (s *Store) LoadVariables() ([]eval.NamedValue, error) {
	var out []eval.NamedValue
	seqs := map[string]int{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketVariables))
		return b.ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			val, ok := decode(rec)
			if !ok {
				return nil
			}
			name := string(k)
			seqs[name] = rec.Seq
			out = append(out, eval.NamedValue{Name: name, Value: val})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading variables: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return seqs[out[i].Name] < seqs[out[j].Name]
	})
	return out, nil
}

func encode(seq int, v value.Value) (record, bool) {
	amount, ok := v.AsDecimal()
	if !ok {
		return record{}, false
	}
	rec := record{Seq: seq, Kind: v.Kind().String(), Amount: amount.String()}
	switch v.Kind() {
	case value.KindCurrency:
		rec.Code = string(v.Code())
	case value.KindUnit, value.KindCompoundUnit:
		rec.Unit = v.Compound().Symbol
	}
	return rec, true
}

func decode(rec record) (value.Value, bool) {
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return value.Empty(), false
	}
	switch rec.Kind {
	case "number":
		return value.Num(amount), true
	case "percentage":
		return value.Pct(amount), true
	case "currency":
		code, ok := currency.Parse(rec.Code)
		if !ok {
			return value.Empty(), false
		}
		return value.Currency(amount, code), true
	case "unit":
		if u, ok := unit.Parse(rec.Unit); ok {
			return value.WithUnit(amount, u), true
		}
		if c, ok := unit.ParseCompound(rec.Unit); ok {
			return value.WithCompound(amount, c), true
		}
	}
	return value.Empty(), false
}
