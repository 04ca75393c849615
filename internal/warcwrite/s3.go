package warcwrite

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sigman78/cdxt/internal/cdxerr"
)

// minPartSize is the AWS-mandated minimum multipart-upload part size,
// except for the final part.
const minPartSize = 5 * 1024 * 1024

// S3Writer writes one rotating WARC shard to S3 via multipart upload.
type S3Writer struct {
	client *s3.Client
	bucket string
	key    string

	ctx      context.Context
	uploadID string
	parts    []types.CompletedPart
	buf      bytes.Buffer
	size     int64
}

// NewS3Writer starts a multipart upload for bucket/key.
func NewS3Writer(ctx context.Context, client *s3.Client, bucket, key string) (*S3Writer, error) {
	out, err := client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("warcwrite: create multipart upload for s3://%s/%s: %w", bucket, key, err)
	}
	return &S3Writer{
		client:   client,
		bucket:   bucket,
		key:      key,
		ctx:      ctx,
		uploadID: aws.ToString(out.UploadId),
	}, nil
}

// WriteRecord buffers record and flushes 5 MiB parts as they accumulate.
func (w *S3Writer) WriteRecord(record []byte) error {
	w.buf.Write(record)
	w.size += int64(len(record))
	for w.buf.Len() >= minPartSize {
		if err := w.flushPart(w.buf.Next(minPartSize)); err != nil {
			return err
		}
	}
	return nil
}

func (w *S3Writer) flushPart(data []byte) error {
	partNumber := int32(len(w.parts) + 1)
	out, err := w.client.UploadPart(w.ctx, &s3.UploadPartInput{
		Bucket:     aws.String(w.bucket),
		Key:        aws.String(w.key),
		UploadId:   aws.String(w.uploadID),
		PartNumber: aws.Int32(partNumber),
		Body:       bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("warcwrite: upload part %d for s3://%s/%s: %w", partNumber, w.bucket, w.key, err)
	}
	w.parts = append(w.parts, types.CompletedPart{
		ETag:       out.ETag,
		PartNumber: aws.Int32(partNumber),
	})
	return nil
}

// Close flushes any buffered tail as a final part and completes the
// multipart upload. On failure it best-effort aborts the upload before
// returning WriterCompleteFailed.
func (w *S3Writer) Close() error {
	if w.buf.Len() > 0 {
		if err := w.flushPart(w.buf.Bytes()); err != nil {
			w.abort()
			return fmt.Errorf("%w: %v", cdxerr.WriterCompleteFailed, err)
		}
		w.buf.Reset()
	}
	_, err := w.client.CompleteMultipartUpload(w.ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(w.bucket),
		Key:      aws.String(w.key),
		UploadId: aws.String(w.uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: w.parts,
		},
	})
	if err != nil {
		w.abort()
		return fmt.Errorf("%w: complete s3://%s/%s: %v", cdxerr.WriterCompleteFailed, w.bucket, w.key, err)
	}
	return nil
}

func (w *S3Writer) abort() {
	_, _ = w.client.AbortMultipartUpload(w.ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(w.bucket),
		Key:      aws.String(w.key),
		UploadId: aws.String(w.uploadID),
	})
}

// CurrentSize returns the total bytes written (buffered plus uploaded).
func (w *S3Writer) CurrentSize() int64 { return w.size }
