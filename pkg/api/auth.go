package api

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Username string `json:"username"` // 4-50 символов [A-Za-z0-9_.-]
	Email    string `json:"email"`    // адрес электронной почты
	Password string `json:"password"` // пароль в открытом виде (только по TLS)
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	Message     string `json:"message"`      // сообщение об успешной регистрации
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email"` // username или email
	Password        string `json:"password"`
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"access_token"`      // JWT access token
	RefreshToken string `json:"refresh_token"`     // JWT refresh token
	Message      string `json:"message,omitempty"` // сообщение о результате
	ExpiresIn    int64  `json:"expires_in"`        // время жизни access token в секундах
}

// MessageResponse представляет ответ без данных
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
