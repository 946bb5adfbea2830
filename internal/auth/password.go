package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"edge-gate/internal/domain"

	"golang.org/x/crypto/argon2"
)

// Parâmetros argon2id para hashing de senha.
const (
	argonMemory      = 64 * 1024
	argonTime        = 3
	argonParallelism = 1
	argonSaltLen     = 16
	argonKeyLen      = 32
)

// ErrInvalidHash indica um hash de senha em formato desconhecido.
var ErrInvalidHash = errors.New("invalid password hash")

// HashSenha gera um hash argon2id no formato
// argon2id$m=<M>,t=<T>,p=<P>$<b64(salt)>$<b64(key)>.
func HashSenha(senha string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(senha), salt, argonTime, argonMemory, argonParallelism, argonKeyLen)
	return fmt.Sprintf("argon2id$m=%d,t=%d,p=%d$%s$%s",
		argonMemory, argonTime, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifySenha compara uma senha com um hash argon2id codificado.
func VerifySenha(senha, encoded string) (bool, error) {
	const prefix = "argon2id$"
	if !strings.HasPrefix(encoded, prefix) {
		return false, ErrInvalidHash
	}
	parts := strings.Split(encoded[len(prefix):], "$")
	if len(parts) != 3 {
		return false, ErrInvalidHash
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, ErrInvalidHash
	}
	keyRef, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey([]byte(senha), salt, t, m, p, uint32(len(keyRef)))
	return subtle.ConstantTimeCompare(key, keyRef) == 1, nil
}

// StaticChecker implementa domain.CredentialChecker com uma única credencial
// administrativa vinda do ambiente. O cadastro real de usuários é um
// colaborador externo; este checker cobre o bootstrap da instância.
type StaticChecker struct {
	email     string
	senhaHash string
}

// NewStaticChecker cria um checker com e-mail e hash argon2id configurados.
func NewStaticChecker(email, senhaHash string) *StaticChecker {
	return &StaticChecker{
		email:     email,
		senhaHash: senhaHash,
	}
}

// Check valida as credenciais e retorna o usuário administrativo.
func (s *StaticChecker) Check(ctx context.Context, email, senha string) (*domain.User, error) {
	if s.email == "" || s.senhaHash == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if !strings.EqualFold(strings.TrimSpace(email), s.email) {
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := VerifySenha(senha, s.senhaHash)
	if err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return &domain.User{
		ID:    1,
		Nome:  "Administrador",
		Email: s.email,
		Admin: 1,
	}, nil
}
