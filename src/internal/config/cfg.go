package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os/user"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/mipimipi/go-utils/file"
)

// UserName is the name of the dbupdate system user, used to own the log
// file
const UserName = "dbupdate"

// ValueKey represents value keys for contexts
type ValueKey string

const (
	// KeyCfg is the key for the dbupdate configuration
	KeyCfg ValueKey = "cfg"
	// KeyVersion is the key for the dbupdate version
	KeyVersion ValueKey = "version"
)

const (
	// CfgDir is the directory where the dbupdate configuration is stored
	CfgDir = "/etc/dbupdate"
	// path of dbupdate configuration file
	cfgFilepath = CfgDir + "/config.json"
)

// default values, matching the reference implementation's documented
// defaults for symlink traversal
const (
	defaultFollowInsideSymlinks  = true
	defaultFollowOutsideSymlinks = true
	defaultUpdateMode            = "scan"
	defaultQueueCapacity         = 32
)

// Cfg stores the data from the dbupdate configuration file
type Cfg struct {
	Update   update `json:"update"`
	CacheDir string `json:"cache_dir"`
	LogDir   string `json:"log_dir"`
	LogLevel string `json:"log_level"`
}

// update holds everything that configures the database updater core
type update struct {
	MusicDir              string        `json:"music_dir"`
	Mode                  string        `json:"update_mode"`   // "scan" or "notify"
	Interval              time.Duration `json:"update_interval"`
	FollowInsideSymlinks  *bool         `json:"follow_inside_symlinks"`
	FollowOutsideSymlinks *bool         `json:"follow_outside_symlinks"`
	EnableArchives        bool          `json:"enable_archives"`
	QueueCapacity         int           `json:"queue_capacity"`
}

// FollowInside returns whether symlinks that resolve inside the
// music root should be followed, applying the documented default when the
// configuration file leaves the key unset
func (me *update) FollowInside() bool {
	if me.FollowInsideSymlinks == nil {
		return defaultFollowInsideSymlinks
	}
	return *me.FollowInsideSymlinks
}

// FollowOutside returns whether symlinks that resolve outside the music
// root should be followed, applying the documented default when the
// configuration file leaves the key unset
func (me *update) FollowOutside() bool {
	if me.FollowOutsideSymlinks == nil {
		return defaultFollowOutsideSymlinks
	}
	return *me.FollowOutsideSymlinks
}

// Load reads the configuration file and returns the dbupdate config as a
// structure
func Load() (cfg Cfg, err error) {
	cfgFile, err := ioutil.ReadFile(cfgFilepath)
	if err != nil {
		return Cfg{}, errors.Wrapf(err, "config file '%s' couldn't be read", cfgFilepath)
	}

	if err = json.Unmarshal(cfgFile, &cfg); err != nil {
		return Cfg{}, errors.Wrapf(err, "config file '%s' couldn't be unmarshalled", cfgFilepath)
	}

	cfg.applyDefaults()

	return
}

// applyDefaults fills in values that the configuration file may have left
// unset
func (me *Cfg) applyDefaults() {
	if me.Update.Mode == "" {
		me.Update.Mode = defaultUpdateMode
	}
	if me.Update.QueueCapacity <= 0 {
		me.Update.QueueCapacity = defaultQueueCapacity
	}
}

// Validate checks if the configuration is complete and correct. If it's
// not, an error is returned
func (me *Cfg) Validate() (err error) {
	if err = validateDir(me.CacheDir, "cache_dir"); err != nil {
		return
	}
	if err = validateDir(me.LogDir, "log_dir"); err != nil {
		return
	}

	if err = validateUser(); err != nil {
		return
	}

	return me.Update.validate()
}

// validate checks if the update part of the configuration is complete and
// correct. If it's not, an error is returned
func (me *update) validate() (err error) {
	if err = validateDir(me.MusicDir, "music_dir"); err != nil {
		return
	}
	if me.Mode != "notify" && me.Mode != "scan" {
		err = fmt.Errorf("unknown update_mode '%s'", me.Mode)
		return
	}
	if me.Interval <= 0 {
		err = fmt.Errorf("update_interval must be > 0")
		return
	}
	return
}

// Test reads the configuration file and checks it for completeness and
// consistency
func Test() (err error) {
	var cfg Cfg

	if cfg, err = Load(); err != nil {
		err = errors.Wrapf(err, "the dbupdate configuration file '%s' couldn't be read", cfgFilepath)
		return
	}

	if err = cfg.Validate(); err != nil {
		return
	}

	fmt.Println("Congrats: The dbupdate configuration is complete and consistent :)")
	return
}

// validateDir checks if dir exists. name is the name that is used for that
// directory in the configuration
func validateDir(dir, name string) (err error) {
	if dir == "" {
		err = fmt.Errorf("no %s maintained", name)
		return
	}
	var exists bool
	if exists, err = file.Exists(dir); err != nil {
		err = errors.Wrapf(err, "cannot check if %s '%s' exists", name, dir)
		return
	}
	if !exists {
		err = fmt.Errorf("%s '%s' doesn't exist", name, dir)
		return
	}
	return
}

func validateUser() (err error) {
	_, err = user.Lookup(UserName)
	if err != nil {
		err = errors.Wrap(err, "dbupdate system user does not exist")
		return
	}
	return
}
