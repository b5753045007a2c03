package imagestore

import (
	"fmt"
	"path"
	"strings"
)

// ItemImagePath composes the object key for an item image copied into the
// images bucket. Keys are grouped by list owner so cleanup on account
// deletion can delete a single prefix.
func ItemImagePath(ownerID, listID, itemID, fileName string) (string, error) {
	owner, err := validateSegment("ownerID", ownerID)
	if err != nil {
		return "", err
	}
	list, err := validateSegment("listID", listID)
	if err != nil {
		return "", err
	}
	item, err := validateSegment("itemID", itemID)
	if err != nil {
		return "", err
	}
	file, err := validateFileName(fileName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("images/users/%s/lists/%s/items/%s/%s", owner, list, item, file), nil
}

// OwnerPrefix returns the object key prefix holding every image stored for
// the given list owner.
func OwnerPrefix(ownerID string) (string, error) {
	owner, err := validateSegment("ownerID", ownerID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("images/users/%s/", owner), nil
}

// ListPrefix returns the object key prefix holding every image stored for
// items of the given list.
func ListPrefix(ownerID, listID string) (string, error) {
	owner, err := validateSegment("ownerID", ownerID)
	if err != nil {
		return "", err
	}
	list, err := validateSegment("listID", listID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("images/users/%s/lists/%s/", owner, list), nil
}

// FileNameFromURL derives a safe object file name from the final path
// segment of a source URL, falling back to the provided default when the
// URL carries no usable name.
func FileNameFromURL(rawURL, fallback string) string {
	name := path.Base(strings.SplitN(rawURL, "?", 2)[0])
	if name == "." || name == "/" || name == "" {
		name = fallback
	}
	if _, err := validateFileName(name); err != nil {
		return fallback
	}
	return name
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("imagestore: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("imagestore: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("imagestore: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

func validateFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("imagestore: fileName is required")
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("imagestore: fileName contains invalid path characters")
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("imagestore: fileName contains invalid traversal sequence")
	}
	return value, nil
}
