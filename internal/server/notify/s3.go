package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrMissingBucket = errors.New("notify: s3 bucket is not set")
	ErrBadRecipient  = errors.New("notify: invalid recipient address")
)

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config points the outbox at an S3-compatible bucket (MinIO in development).
type S3Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	From         string
}

// S3Outbox is a mail drop: every message becomes an RFC 5322 object under
// welcome/YYYY/MM/DD/ for an external mailer to pick up and deliver.
type S3Outbox struct {
	client objectPutter
	bucket string
	from   string
	now    func() time.Time
	newID  func() string
}

func NewS3Outbox(ctx context.Context, cfg S3Config) (*S3Outbox, error) {
	if cfg.Bucket == "" {
		return nil, ErrMissingBucket
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Outbox(client, cfg.Bucket, cfg.From), nil
}

func newS3Outbox(client objectPutter, bucket, from string) *S3Outbox {
	if from == "" {
		from = "AuthKeeper <no-reply@authkeeper.local>"
	}
	return &S3Outbox{
		client: client,
		bucket: bucket,
		from:   from,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (o *S3Outbox) Send(ctx context.Context, msg Message) error {
	now := o.now().UTC()
	id := o.newID()

	body, err := o.compose(msg, id, now)
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}

	key := objectKey(now, id)
	_, err = o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(o.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("message/rfc822"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func objectKey(t time.Time, id string) string {
	return fmt.Sprintf("welcome/%04d/%02d/%02d/%s.eml", t.Year(), int(t.Month()), t.Day(), id)
}

func (o *S3Outbox) compose(msg Message, id string, now time.Time) ([]byte, error) {
	to, err := recipient(msg.To)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", o.from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", "<"+id+"@authkeeper>")
	header("MIME-Version", "1.0")
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	parts := []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// recipient renders a single address for the To header. Anything that could
// end the header line is rejected.
func recipient(to string) (string, error) {
	if strings.ContainsAny(to, "\r\n") {
		return "", fmt.Errorf("%w: line break in %q", ErrBadRecipient, to)
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadRecipient, err)
	}
	return addr.String(), nil
}
