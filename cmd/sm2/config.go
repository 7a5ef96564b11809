package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/protocol/guard"
	"github.com/smallyu/go-sm2/internal/protocol/sign"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "SM2"

// Configuration keys. Each is a persistent flag, an SM2_* environment
// variable and a key of the --config file.
const (
	keyConfig        = "config"
	keyVerbose       = "verbose"
	keyCurve         = "curve"
	keyHash          = "hash"
	keyUID           = "uid"
	keySkipIdentity  = "skip-identity"
	keyMaxRetries    = "max-retries"
	keyFaultAttempts = "fault-attempts"
	keyBlindBits     = "blind-bits"
)

// env holds what every subcommand needs once flags are parsed.
type env struct {
	v      *viper.Viper
	params *sm2.Parameters
	logger *zap.Logger
	scheme *sign.Scheme
	signer *guard.Signer
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	def := sm2.DefaultParameters()
	flags := cmd.PersistentFlags()

	flags.String(keyConfig, "", "YAML configuration file")
	flags.BoolP(keyVerbose, "v", false, "development logging at debug level")
	flags.String(keyCurve, def.Curve, "curve name (sm2p256v1, sm2-test-p256, secp256k1)")
	flags.String(keyHash, def.Hash, "message hash (sm3, sha256, sha3-256)")
	flags.String(keyUID, string(def.UID), "signer identity bound into the digest")
	flags.Bool(keySkipIdentity, false, "hash the bare message without Z_A (non-compliant)")
	flags.Int(keyMaxRetries, def.MaxRetries, "nonce candidates tried per signature")
	flags.Int(keyFaultAttempts, def.FaultAttempts, "dual computations tried before reporting a fault")
	flags.Int(keyBlindBits, def.BlindBits, "scalar blinding width for k*G, 0 disables blinding")

	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "binding flags")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return nil
}

// load reads the config file, resolves the parameters and builds the
// scheme.
func load(v *viper.Viper) (*env, error) {
	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	}

	logger, err := newLogger(v.GetBool(keyVerbose))
	if err != nil {
		return nil, err
	}

	p := &sm2.Parameters{
		Curve:         v.GetString(keyCurve),
		Hash:          v.GetString(keyHash),
		UID:           []byte(v.GetString(keyUID)),
		SkipIdentity:  v.GetBool(keySkipIdentity),
		MaxRetries:    v.GetInt(keyMaxRetries),
		FaultAttempts: v.GetInt(keyFaultAttempts),
		BlindBits:     v.GetInt(keyBlindBits),
	}
	scheme, signer, err := guard.NewSchemeSigner(p, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		zap.String("curve", p.Curve),
		zap.String("hash", p.Hash),
		zap.Bool("compliant", scheme.Compliant()),
		zap.Int("blind-bits", p.BlindBits))

	return &env{v: v, params: p, logger: logger, scheme: scheme, signer: signer}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
