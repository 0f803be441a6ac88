package assets

import "errors"

// Sentinel errors for template loading.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExecute  = errors.New("template execution failed")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid template directory")
	// ErrAssetRead also covers files that resolve outside the template
	// directory through a symlink.
	ErrAssetRead = errors.New("failed to read template")
)
