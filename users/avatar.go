package users

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"wanderplan/utils"

	"github.com/disintegration/imaging"
)

const avatarSize = 256

var ErrBadImage = errors.New("unsupported or corrupt image")

// SaveAvatar decodes src, crops it to a centred square thumbnail and writes it as JPEG under
// uploadDir/avatars. It returns the public path of the file.
func SaveAvatar(src io.Reader, uploadDir string) (string, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	dir := filepath.Join(uploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}

	name := utils.GetUUID() + ".jpg"
	thumb := imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}
	return "/" + strings.TrimLeft(filepath.ToSlash(filepath.Join(dir, name)), "/"), nil
}
