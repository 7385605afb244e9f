package security

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var configDirOnce sync.Once

// isolate keeps the document library from creating or reading a config
// directory under the user's home. Only the core fonts remain available.
func isolate() {
	configDirOnce.Do(api.DisableConfigDir)
}

// Permissions selects the access rights granted to the user password.
type Permissions string

const (
	PermitAll   Permissions = "all"
	PermitPrint Permissions = "print"
	PermitNone  Permissions = "none"
)

func (p Permissions) flags() (model.PermissionFlags, error) {
	switch Permissions(strings.ToLower(string(p))) {
	case "", PermitAll:
		return model.PermissionsAll, nil
	case PermitPrint:
		return model.PermissionsPrint, nil
	case PermitNone:
		return model.PermissionsNone, nil
	default:
		return 0, fmt.Errorf("unknown permissions %q", string(p))
	}
}

// Encryption describes how documents are password protected.
type Encryption struct {
	// UseAES selects AES; false selects RC4.
	UseAES bool
	// KeyLength in bits. AES: 40, 128, 256. RC4: 40, 128.
	KeyLength   int
	Permissions Permissions
}

// DefaultEncryption is the 128-bit AES profile.
func DefaultEncryption() Encryption {
	return Encryption{UseAES: true, KeyLength: 128, Permissions: PermitAll}
}

func (e Encryption) Validate() error {
	switch e.KeyLength {
	case 40, 128:
	case 256:
		if !e.UseAES {
			return errors.New("256-bit keys require AES")
		}
	default:
		return fmt.Errorf("unsupported key length %d", e.KeyLength)
	}
	_, err := e.Permissions.flags()
	return err
}

// Configuration returns a document library configuration that protects a
// document with password as both user and owner password.
func (e Encryption) Configuration(password string) (*model.Configuration, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	perms, _ := e.Permissions.flags()

	isolate()
	var conf *model.Configuration
	if e.UseAES {
		conf = model.NewAESConfiguration(password, password, e.KeyLength)
	} else {
		conf = model.NewRC4Configuration(password, password, e.KeyLength)
	}
	conf.Permissions = perms
	conf.ValidationMode = model.ValidationRelaxed
	return conf, nil
}

// NewConfiguration returns a relaxed-validation configuration carrying
// password as user and owner password. An empty password opens unprotected
// documents.
func NewConfiguration(password string) *model.Configuration {
	isolate()
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
