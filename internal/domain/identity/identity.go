// Package identity генерирует анонимные идентификаторы, коды комнат и хеши паролей
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MaxNameLength  = 20
	RoomCodeLength = 4

	// DefaultText подставляется вместо пустого текста после очистки
	DefaultText = "Untitled"

	anonymousPrefix = "Anonymous#"
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	bcryptCost      = bcrypt.DefaultCost
	maxPasswordLen  = 72
)

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

func GenerateID() string {
	return uuid.NewString()
}

// GenerateFingerprint токен для банов, не связан с ID сессии
func GenerateFingerprint() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// GenerateRoomCode короткий код для инвайт ссылок. Коллизии возможны.
func GenerateRoomCode() string {
	return randomString(RoomCodeLength)
}

func HashPassword(plain string) (string, error) {
	if len(plain) > maxPasswordLen {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

func VerifyPassword(plain, record string) bool {
	if record == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(record), []byte(plain)) == nil
}

// ValidateName обрезает имя до 20 символов, пустое заменяет на Anonymous#XXXX
func ValidateName(raw string) string {
	name := truncate(strings.TrimSpace(raw), MaxNameLength)
	name = strings.TrimSpace(name)

	if name == "" {
		return anonymousPrefix + randomString(4)
	}

	return name
}

// SanitizeText убирает < и > и ограничивает длину. Это не HTML санитайзер.
func SanitizeText(raw string, maxLen int) string {
	text := truncate(strings.TrimSpace(raw), maxLen)
	text = strings.NewReplacer("<", "", ">", "").Replace(text)

	if strings.TrimSpace(text) == "" {
		return DefaultText
	}

	return text
}

func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	return string([]rune(s)[:maxRunes])
}

func randomString(n int) string {
	var sb strings.Builder
	sb.Grow(n)

	limit := big.NewInt(int64(len(codeAlphabet)))

	for range n {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand не возвращает ошибок на поддерживаемых платформах
			panic(fmt.Sprintf("crypto/rand: %v", err))
		}
		sb.WriteByte(codeAlphabet[idx.Int64()])
	}

	return sb.String()
}
