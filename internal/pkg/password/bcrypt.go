package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch indica que a senha não corresponde ao hash.
var ErrMismatch = errors.New("senha não corresponde")

// Hasher gera e verifica hashes bcrypt com um custo fixo.
type Hasher struct {
	cost int
}

// NewHasher cria o hasher. Custos fora do intervalo do bcrypt usam o custo por omissão.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash devolve o hash bcrypt da senha.
func (h *Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara a senha com o hash; ErrMismatch se não corresponder.
func (h *Hasher) Verify(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
