package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	pqgo "github.com/parquet-go/parquet-go"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"

	"github.com/datazip-inc/mapsource/constants"
	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/types"
	"github.com/datazip-inc/mapsource/utils"
)

type FileMetadata struct {
	fileName    string
	recordCount int
	writer      *pqgo.GenericWriter[types.FeatureRecord]
	parquetFile source.ParquetFile
}

// Parquet writes one Parquet file per layer to a local path and optionally uploads them to S3.
type Parquet struct {
	config   *Config
	files    map[string]*FileMetadata // layer name -> open file
	s3Client *s3.S3
}

// GetConfigRef returns the config reference for the parquet writer.
func (p *Parquet) GetConfigRef() protocol.Config {
	if p.config == nil {
		p.config = &Config{}
	}
	return p.config
}

// setup s3 client if credentials provided
func (p *Parquet) initS3Writer() error {
	if p.config.Bucket == "" || p.config.Region == "" || p.s3Client != nil {
		return nil
	}
	s3Config := aws.Config{
		Region: aws.String(p.config.Region),
	}
	if p.config.AccessKey != "" && p.config.SecretKey != "" {
		s3Config.Credentials = credentials.NewStaticCredentials(p.config.AccessKey, p.config.SecretKey, "")
	}
	sess, err := session.NewSession(&s3Config)
	if err != nil {
		return fmt.Errorf("failed to create AWS session: %s", err)
	}
	p.s3Client = s3.New(sess)

	return nil
}

// Setup opens a new file for layer; a layer already set up keeps its file.
func (p *Parquet) Setup(layer string) error {
	if !utils.IsFileName(layer) {
		return fmt.Errorf("invalid layer name[%s]", layer)
	}
	if p.files == nil {
		p.files = make(map[string]*FileMetadata)
	}
	if _, exists := p.files[layer]; exists {
		return nil
	}

	// for s3 p.config.path may not be provided
	if p.config.Path == "" {
		p.config.Path = os.TempDir()
	}

	directoryPath := filepath.Join(p.config.Path, layer)
	if err := os.MkdirAll(directoryPath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directories[%s]: %s", directoryPath, err)
	}

	fileName := utils.TimestampedFileName(constants.ParquetFileExt)
	pqFile, err := local.NewLocalFileWriter(filepath.Join(directoryPath, fileName))
	if err != nil {
		return fmt.Errorf("failed to create parquet file writer: %s", err)
	}

	p.files[layer] = &FileMetadata{
		fileName:    fileName,
		parquetFile: pqFile,
		writer:      pqgo.NewGenericWriter[types.FeatureRecord](pqFile, pqgo.Compression(&pqgo.Snappy)),
	}

	return p.initS3Writer()
}

// Write writes a record to the Parquet file of its layer.
func (p *Parquet) Write(_ context.Context, record types.FeatureRecord) error {
	fileMetadata, exists := p.files[record.Layer]
	if !exists {
		return fmt.Errorf("layer[%s] has not been set up", record.Layer)
	}

	if _, err := fileMetadata.writer.Write([]types.FeatureRecord{record}); err != nil {
		return fmt.Errorf("failed to write in parquet file: %s", err)
	}
	fileMetadata.recordCount++
	return nil
}

// Check validates local paths and S3 credentials if applicable.
func (p *Parquet) Check() error {
	// check for s3 writer configuration
	err := p.initS3Writer()
	if err != nil {
		return err
	}
	// test for s3 permissions
	if p.s3Client != nil {
		testKey := fmt.Sprintf("mapsource_writer_test/%s", utils.TimestampedFileName("txt"))
		// Try to upload a small test file
		_, err = p.s3Client.PutObject(&s3.PutObjectInput{
			Bucket: aws.String(p.config.Bucket),
			Key:    aws.String(testKey),
			Body:   strings.NewReader("S3 write test"),
		})
		if err != nil {
			return fmt.Errorf("failed to write test file to S3: %s", err)
		}
		if p.config.Path == "" {
			p.config.Path = os.TempDir()
		}
		logger.Info("s3 writer configuration found")
	} else if p.config.Path != "" {
		logger.Infof("local writer configuration found, writing at location[%s]", p.config.Path)
	} else {
		return fmt.Errorf("invalid configuration found")
	}

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(p.config.Path, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create path: %s", err)
	}

	// Test directory writability
	tempFile, err := os.CreateTemp(p.config.Path, "temporary-*.txt")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s", err)
	}
	tempFile.Close()
	os.Remove(tempFile.Name())
	return nil
}

func (p *Parquet) Close() error {
	removeLocalFile := func(filePath, reason string, recordCount int) {
		err := os.Remove(filePath)
		if err != nil {
			logger.Warnf("Failed to delete file [%s] with %d records (%s): %s", filePath, recordCount, reason, err)
			return
		}
		logger.Debugf("Deleted file [%s] with %d records (%s).", filePath, recordCount, reason)
	}

	for layer, fileMetadata := range p.files {
		filePath := filepath.Join(p.config.Path, layer, fileMetadata.fileName)

		if err := fileMetadata.writer.Close(); err != nil {
			return fmt.Errorf("failed to close writer: %s", err)
		}
		if err := fileMetadata.parquetFile.Close(); err != nil {
			return fmt.Errorf("failed to close file: %s", err)
		}
		delete(p.files, layer)

		// Remove empty files
		if fileMetadata.recordCount == 0 {
			removeLocalFile(filePath, "no records written", fileMetadata.recordCount)
			continue
		}

		logger.Infof("Finished writing file [%s] with %d records.", filePath, fileMetadata.recordCount)

		if p.s3Client != nil {
			if err := p.upload(layer, filePath, fileMetadata.fileName); err != nil {
				return err
			}
			removeLocalFile(filePath, "uploaded to S3", fileMetadata.recordCount)
		}
	}
	return nil
}

func (p *Parquet) upload(layer, filePath, fileName string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open local file for S3 upload: %s", err)
	}
	defer file.Close()

	s3KeyPath := filepath.Join(p.config.Prefix, layer, fileName)
	_, err = p.s3Client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(p.config.Bucket),
		Key:    aws.String(s3KeyPath),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to S3 (bucket: %s, path: %s): %s", p.config.Bucket, s3KeyPath, err)
	}

	logger.Infof("Successfully uploaded file to S3: s3://%s/%s", p.config.Bucket, s3KeyPath)
	return nil
}

// Type returns the type of the writer.
func (p *Parquet) Type() string {
	return string(types.Parquet)
}

func init() {
	protocol.RegisteredWriters[types.Parquet] = func() protocol.Writer {
		return new(Parquet)
	}
}
