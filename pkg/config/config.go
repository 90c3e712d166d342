// Package config는 서비스 설정 파일과 환경 변수를 읽어오는 패키지입니다.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 인터페이스는 설정 값에 액세스하기 위한 메서드를 정의합니다.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string
	IsSet(key string) bool
	// Unmarshal은 전체 설정을 구조체로 디코딩합니다 (mapstructure 태그 사용).
	Unmarshal(out interface{}) error
	// ConfigFile은 실제로 읽은 설정 파일 경로를 반환합니다.
	ConfigFile() string
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string        { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int              { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool            { return c.v.GetBool(key) }
func (c *viperConfig) GetStringSlice(key string) []string { return c.v.GetStringSlice(key) }
func (c *viperConfig) IsSet(key string) bool              { return c.v.IsSet(key) }
func (c *viperConfig) Unmarshal(out interface{}) error    { return c.v.Unmarshal(out) }
func (c *viperConfig) ConfigFile() string                 { return c.v.ConfigFileUsed() }

// 설정 디렉토리 경로
const configDir = "configs"

// Options는 Load 동작을 조정합니다.
type Options struct {
	// Defaults는 설정 파일에 값이 없을 때 사용할 기본값입니다.
	Defaults map[string]interface{}
	// EnvKeys는 설정 파일에 없어도 환경 변수로 주입 가능해야 하는 키 목록입니다.
	EnvKeys []string
}

// Load는 지정된 서비스 이름에 해당하는 설정 파일을 로드합니다.
//
// 탐색 순서: $CONFIG_PATH/{service}.yaml → configs/{APP_ENV}/{service}.yaml → configs/example/{service}.yaml
// 환경 변수는 {SERVICE}_ 접두사와 "." → "_" 치환 규칙으로 덮어씁니다.
func Load(serviceName string, opts ...Options) (Config, error) {
	v := viper.New()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 기본 환경은 dev
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, o := range opts {
		for key, value := range o.Defaults {
			v.SetDefault(key, value)
		}
		for _, key := range o.EnvKeys {
			if err := v.BindEnv(key); err != nil {
				return nil, fmt.Errorf("환경 변수 바인딩 실패 (%s): %w", key, err)
			}
		}
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		// configs/example 디렉토리에서 예제 설정 파일 시도
		v.AddConfigPath(filepath.Join(configDir, "example"))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
	}

	return &viperConfig{v: v}, nil
}
