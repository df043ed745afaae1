package config

import "os"

type filesystemManagement interface {
	writeConfigFile(filepath string, data []byte) error
}

type fileManagement struct{}

func (fs *fileManagement) writeConfigFile(filepath string, data []byte) error {
	return os.WriteFile(filepath, data, 0600)
}
