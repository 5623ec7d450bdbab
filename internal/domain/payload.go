package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Payload é a variante tipada dos campos de uma categoria.
// O registo guarda o mapa submetido; a variante serve para apanhar nomes de
// campos errados e tipos inválidos antes de chegar ao armazenamento.
type Payload interface {
	Category() Category
}

// Criminalidade descreve uma ocorrência criminal.
type Criminalidade struct {
	Municipio    string   `json:"municipio" validate:"required"`
	Comuna       string   `json:"comuna"`
	Bairro       string   `json:"bairro"`
	Crime        string   `json:"crime" validate:"required"`
	FamiliaCrime string   `json:"familiaCrime"`
	Data         string   `json:"data" validate:"omitempty,sigodate"`
	VitimaNome   string   `json:"vitimaNome"`
	VitimaIdade  *float64 `json:"vitimaIdade" validate:"omitempty,gte=0"`
	VitimaGenero string   `json:"vitimaGenero"`
	ArguidoNome  string   `json:"arguidoNome"`
	ArguidoIdade *float64 `json:"arguidoIdade" validate:"omitempty,gte=0"`
	Estado       string   `json:"estado"`
	Descricao    string   `json:"descricao"`
}

// Sinistralidade descreve um acidente de viação.
type Sinistralidade struct {
	Municipio    string   `json:"municipio" validate:"required"`
	Local        string   `json:"local"`
	TipoAcidente string   `json:"tipoAcidente"`
	Causa        string   `json:"causa"`
	Data         string   `json:"data" validate:"omitempty,sigodate"`
	Viaturas     *float64 `json:"viaturas" validate:"omitempty,gte=0"`
	Mortos       *float64 `json:"mortos" validate:"omitempty,gte=0"`
	Feridos      *float64 `json:"feridos" validate:"omitempty,gte=0"`
	Descricao    string   `json:"descricao"`
}

// Resultado descreve um resultado operativo (detenções, apreensões, ...).
type Resultado struct {
	Municipio     string   `json:"municipio"`
	TipoResultado string   `json:"tipoResultado" validate:"required"`
	Operacao      string   `json:"operacao"`
	Unidade       string   `json:"unidade"`
	Quantidade    *float64 `json:"quantidade" validate:"omitempty,gte=0"`
	Data          string   `json:"data" validate:"omitempty,sigodate"`
	Descricao     string   `json:"descricao"`
}

// Transporte descreve um movimento de viatura ou abastecimento de combustível.
type Transporte struct {
	Viatura       string   `json:"viatura" validate:"required"`
	Matricula     string   `json:"matricula"`
	Motorista     string   `json:"motorista"`
	TipoMovimento string   `json:"tipoMovimento"`
	Origem        string   `json:"origem"`
	Destino       string   `json:"destino"`
	Combustivel   string   `json:"combustivel"`
	Litros        *float64 `json:"litros" validate:"omitempty,gte=0"`
	Quilometragem *float64 `json:"quilometragem" validate:"omitempty,gte=0"`
	Data          string   `json:"data" validate:"omitempty,sigodate"`
	Observacoes   string   `json:"observacoes"`
}

// Logistica descreve a entrega de armamento, fardamento ou material.
// EfectivoNIP refere o efectivo apenas por texto; não há chave estrangeira.
type Logistica struct {
	Tipo         string   `json:"tipo" validate:"required,oneof=armamento fardamento material"`
	Item         string   `json:"item" validate:"required"`
	NumeroSerie  string   `json:"numeroSerie"`
	Quantidade   *float64 `json:"quantidade" validate:"omitempty,gte=0"`
	EfectivoNIP  string   `json:"efectivoNip"`
	EfectivoNome string   `json:"efectivoNome"`
	Unidade      string   `json:"unidade"`
	Data         string   `json:"data" validate:"omitempty,sigodate"`
	Observacoes  string   `json:"observacoes"`
}

// AutoExpediente descreve um auto de expediente.
type AutoExpediente struct {
	NumeroAuto   string `json:"numeroAuto" validate:"required"`
	DataAuto     string `json:"dataAuto" validate:"omitempty,sigodate"`
	Municipio    string `json:"municipio"`
	Tipo         string `json:"tipo"`
	Participante string `json:"participante"`
	Visado       string `json:"visado"`
	Estado       string `json:"estado"`
	Descricao    string `json:"descricao"`
}

// Processo descreve um processo-crime em instrução.
type Processo struct {
	NumeroProcesso string `json:"numeroProcesso" validate:"required"`
	Data           string `json:"data" validate:"omitempty,sigodate"`
	Municipio      string `json:"municipio"`
	Crime          string `json:"crime"`
	ArguidoNome    string `json:"arguidoNome"`
	Instrutor      string `json:"instrutor"`
	Estado         string `json:"estado"`
	Descricao      string `json:"descricao"`
}

func (Criminalidade) Category() Category  { return CategoryCriminalidade }
func (Sinistralidade) Category() Category { return CategorySinistralidade }
func (Resultado) Category() Category      { return CategoryResultados }
func (Transporte) Category() Category     { return CategoryTransportes }
func (Logistica) Category() Category      { return CategoryLogistica }
func (AutoExpediente) Category() Category { return CategoryAutosExpediente }
func (Processo) Category() Category       { return CategoryProcessos }

// newPayload devolve a variante vazia da categoria, ou nil para users.
func newPayload(c Category) Payload {
	switch c {
	case CategoryCriminalidade:
		return &Criminalidade{}
	case CategorySinistralidade:
		return &Sinistralidade{}
	case CategoryResultados:
		return &Resultado{}
	case CategoryTransportes:
		return &Transporte{}
	case CategoryLogistica:
		return &Logistica{}
	case CategoryAutosExpediente:
		return &AutoExpediente{}
	case CategoryProcessos:
		return &Processo{}
	}
	return nil
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	// Mensagens com o nome JSON do campo, que é o que o operador vê.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("sigodate", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String(), nil)
		return ok
	})
	return v
}

// DecodePayload converte o mapa de campos na variante tipada da categoria.
// Rejeita campos desconhecidos, tipos errados e regras de validação falhadas.
func DecodePayload(c Category, fields map[string]interface{}) (Payload, error) {
	p := newPayload(c)
	if p == nil {
		return nil, fmt.Errorf("a categoria %s não aceita registos genéricos", c)
	}

	raw, err := json.Marshal(CopyFields(fields))
	if err != nil {
		return nil, fmt.Errorf("campos não serializáveis: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, describeDecodeError(c, err)
	}

	if err := payloadValidator.Struct(p); err != nil {
		return nil, describeValidationError(err)
	}
	return p, nil
}

// ValidateStruct aplica as regras validate de uma estrutura de entrada
// (login, utilizadores) com as mesmas mensagens dos registos.
func ValidateStruct(v interface{}) error {
	if err := payloadValidator.Struct(v); err != nil {
		return describeValidationError(err)
	}
	return nil
}

func describeDecodeError(c Category, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("o campo %s deve ser do tipo %s", typeErr.Field, jsonKind(typeErr.Type))
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "json: unknown field ") {
		field := strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`)
		return fmt.Errorf("campo desconhecido %q para a categoria %s", field, c)
	}
	return fmt.Errorf("campos inválidos: %w", err)
}

func describeValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("o campo %s é obrigatório", fe.Field()))
		case "sigodate":
			parts = append(parts, fmt.Sprintf("o campo %s não é uma data válida", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("o campo %s deve ser um de: %s", fe.Field(), fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("o campo %s deve ter pelo menos %s caracteres", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("o campo %s deve ter no máximo %s caracteres", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("o campo %s falhou a regra %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "desconhecido"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "texto"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "número"
	}
	return t.Kind().String()
}
