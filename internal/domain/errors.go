package domain

import "errors"

// Erros sentinela do núcleo de segurança.
var (
	// ErrMissingCredentials indica ausência de um dos cookies de sessão.
	ErrMissingCredentials = errors.New("missing session credentials")

	// ErrInvalidToken indica JWT malformado, assinatura inválida ou expirado.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrCredentialMismatch indica divergência entre o JWT e o cookie
	// auth_user espelhado. Tratado como adulteração, não como sessão parcial.
	ErrCredentialMismatch = errors.New("session credential mismatch")

	// ErrInvalidCredentials indica falha de login (e-mail/senha).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProspectTokenNotFound indica token de prospecto inexistente ou revogado.
	ErrProspectTokenNotFound = errors.New("prospect token not found")

	// ErrProspectTokenExpired indica token de prospecto fora da validade.
	ErrProspectTokenExpired = errors.New("prospect token expired")

	// ErrInvalidIdentifier indica identificador numérico inválido na entrada.
	ErrInvalidIdentifier = errors.New("invalid numeric identifier")
)
