// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/wire"
)

// ProviderSet 提供存储相关的依赖
var ProviderSet = wire.NewSet(ProvideStorage)

// 存储类型常量
const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageS3    = "s3"
	StorageGCS   = "gcs"
)

// Storage 存储配置结构
type Storage struct {
	Provider  string `default:"local"`
	AccessKey string
	SecretKey string
	Endpoint  string
	Bucket    string
	Region    string
	UseTLS    bool
	BasePath  string
	// LocalPath is the root directory of the local provider
	LocalPath string `default:"./data/modules"`
	// PublicBase prefixes object names in public URLs
	PublicBase string `default:"/modules"`
}

func ProvideStorage(conf Storage) (StorageProvider, error) {
	return NewStorage(&conf)
}

// NewStorage 根据配置创建存储提供者实例
func NewStorage(s *Storage) (StorageProvider, error) {
	switch s.Provider {
	case "", StorageLocal:
		return newLocal(s)
	case StorageMinio:
		return newMinio(s)
	case StorageS3:
		return newS3(s)
	case StorageGCS:
		return newGCS(s)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", s.Provider)
	}
}

// getFullPath 组合 BasePath 和 objectName，返回完整的对象路径
func getFullPath(basePath, objectName string) string {
	objectName = strings.TrimPrefix(objectName, "/")
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return objectName
	}
	return path.Join(basePath, objectName)
}

func publicURL(base, objectName string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimPrefix(objectName, "/")
}
