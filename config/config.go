package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database  DatabaseConfigs
	ApiServer ServerConfigs
	Auth      AuthConfigs
	Nonce     NonceConfigs
	Redis     RedisConfigs
	Eth       EthConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	LogLevel string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

type AuthConfigs struct {
	TokenSecret  string
	AccessToken  TokenConfigs
	RefreshToken TokenConfigs

	// AdminAddresses is consulted only when an account is first created.
	// Later logins trust the role stored on the account.
	AdminAddresses []string
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type NonceConfigs struct {
	// TTL bounds how long an issued challenge stays valid. Zero means
	// challenges never expire on their own (they are still single use).
	TTL time.Duration
}

type RedisConfigs struct {
	Addr string
}

type EthConfigs struct {
	Chain              string   `toml:"chain"`
	Rpcs               []string `toml:"rpcs"`
	ContractAddress    string   `toml:"contract_address"`
	OperatorPrivateKey string   `toml:"operator_private_key"`
	GasLimit           uint64   `toml:"gas_limit"`
	ConfirmTimeout     time.Duration
	BlockTime          time.Duration
}
