package connection

import (
	"errors"

	common "github.com/tizianocitro/blobquickstart/pkg"
)

var (
	// ErrCredentialNotSet is returned when no credential was supplied at all.
	ErrCredentialNotSet = errors.New("credential not set")
	// ErrInvalidCredential is returned when a credential cannot be parsed.
	ErrInvalidCredential = errors.New("invalid credential")
)

type ConnectType string

const (
	WithCredential       ConnectType = "withCredential"
	WithEnv              ConnectType = "withEnv"
	WithConnectionString ConnectType = "withConnectionString"
)

type AuthConfig struct {
	connectType          ConnectType
	accessKey            string
	secretKey            string
	connectionString     string
	connectionProperties common.ConnectionProperties
}

func NewAuthConfig(connectType ConnectType) *AuthConfig {
	return &AuthConfig{connectType: connectType}
}

func (a *AuthConfig) GetConnectType() ConnectType {
	return a.connectType
}

func (a *AuthConfig) GetAccessKey() string {
	return a.accessKey
}

func (a *AuthConfig) GetSecretKey() string {
	return a.secretKey
}

func (a *AuthConfig) GetConnectionString() string {
	return a.connectionString
}

func (a *AuthConfig) SetConnectType(connectType ConnectType) {
	a.connectType = connectType
}

func (a *AuthConfig) SetAccessKey(accessKey string) {
	a.accessKey = accessKey
}

func (a *AuthConfig) SetSecretKey(secretKey string) {
	a.secretKey = secretKey
}

func (a *AuthConfig) SetConnectionString(connectionString string) {
	a.connectionString = connectionString
}

func (a *AuthConfig) GetProperties() common.ConnectionProperties {
	return a.connectionProperties
}

func (a *AuthConfig) SetProperties(properties common.ConnectionProperties) {
	a.connectionProperties = properties
}
