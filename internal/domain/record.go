package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Campos gerados pelo armazenamento; nunca vêm do cliente.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
)

// Record é a entidade genérica de todas as categorias.
// ID e CreatedAt são atribuídos na criação e não mudam; os restantes campos
// ficam em Fields tal como foram submetidos.
type Record struct {
	ID        int64
	CreatedAt time.Time
	Fields    map[string]interface{}
}

// Field é um par nome/valor da vista genérica usada pelas tabelas.
type Field struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Get devolve o valor bruto de um campo, incluindo id e createdAt.
func (r Record) Get(name string) (interface{}, bool) {
	switch name {
	case FieldID:
		return r.ID, true
	case FieldCreatedAt:
		if r.CreatedAt.IsZero() {
			return nil, false
		}
		return r.CreatedAt, true
	}
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String devolve o valor do campo formatado como texto ("" se ausente).
func (r Record) String(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// FieldList devolve os campos do registo ordenados por nome, precedidos de id e createdAt.
func (r Record) FieldList() []Field {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]Field, 0, len(names)+2)
	out = append(out, Field{Name: FieldID, Value: r.ID})
	out = append(out, Field{Name: FieldCreatedAt, Value: r.CreatedAt.UTC().Format(time.RFC3339Nano)})
	for _, k := range names {
		out = append(out, Field{Name: k, Value: r.Fields[k]})
	}
	return out
}

// Clone copia o registo de modo a que o mapa de campos não seja partilhado.
func (r Record) Clone() Record {
	c := r
	c.Fields = CopyFields(r.Fields)
	return c
}

// MarshalJSON produz o formato plano {"id":..,"createdAt":..,<campos>}.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Fields)+2)
	for k, v := range r.Fields {
		m[k] = v
	}
	m[FieldID] = r.ID
	m[FieldCreatedAt] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(m)
}

// UnmarshalJSON lê o formato plano produzido por MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	rec := Record{Fields: make(map[string]interface{}, len(raw))}
	for k, v := range raw {
		switch k {
		case FieldID:
			n, ok := v.(json.Number)
			if !ok {
				return fmt.Errorf("id inválido: %v", v)
			}
			id, err := n.Int64()
			if err != nil {
				return fmt.Errorf("id inválido: %w", err)
			}
			rec.ID = id
		case FieldCreatedAt:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("createdAt inválido: %v", v)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return fmt.Errorf("createdAt inválido: %w", err)
			}
			rec.CreatedAt = t
		default:
			rec.Fields[k] = normalizeNumbers(v)
		}
	}
	*r = rec
	return nil
}

// normalizeNumbers converte json.Number em float64, como faria o decoder padrão.
func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []interface{}:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]interface{}:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	}
	return v
}

// CopyFields copia o mapa de campos sem as chaves reservadas id e createdAt.
func CopyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		out[k] = v
	}
	return out
}

// FormatValue converte um valor de campo em texto para pesquisa e agregação.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}

// RecordRepository é o contrato de persistência partilhado por todas as categorias.
// Todas as leituras e escritas são varrimentos lineares da coleção da categoria.
type RecordRepository interface {
	// List devolve os registos da categoria em ordem de inserção.
	List(ctx context.Context, category Category) ([]Record, error)
	// Insert acrescenta o registo (já com ID e CreatedAt) à coleção.
	Insert(ctx context.Context, category Category, record Record) (Record, error)
	// Update substitui os campos do registo com o mesmo ID; NotFoundError se não existir.
	Update(ctx context.Context, category Category, record Record) (Record, error)
	// Delete remove no máximo um registo e indica se removeu.
	Delete(ctx context.Context, category Category, id int64) (bool, error)
}
