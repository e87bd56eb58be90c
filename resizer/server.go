// Package resizer serves the resized images over HTTP.
package resizer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/groupcache"
	"github.com/gorilla/mux"
	"github.com/greut/resizer/config"
	"github.com/greut/resizer/metrics"
	"github.com/greut/resizer/pipeline"
	"github.com/greut/resizer/source"
	"go.uber.org/zap"
)

var now = time.Now

// Services are the collaborators of the handlers.
type Services struct {
	Source   source.Source
	Pipeline *pipeline.Pipeline
	// Metrics is optional.
	Metrics *metrics.Instance
	Logger  *zap.Logger
}

func (s *Services) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// fetch reads the source bytes, through the images group when there is one.
func (s *Services) fetch(ctx context.Context, images *groupcache.Group, bucket, key string) ([]byte, error) {
	var buffer []byte
	var err error

	if images != nil {
		err = images.Get(ctx, bucket+"/"+key, groupcache.AllocatingByteSliceSink(&buffer))
	} else {
		buffer, err = s.Source.Read(ctx, bucket, key)
	}

	if err != nil {
		return nil, &pipeline.CollaboratorError{Collaborator: "source", Err: err}
	}

	return buffer, nil
}

// render fetches and transforms one image.
func (s *Services) render(ctx context.Context, images *groupcache.Group, bucket, key string, raw pipeline.RawParameters) (*CachedImage, error) {
	src, err := s.fetch(ctx, images, bucket, key)
	if err != nil {
		return nil, err
	}

	if s.Metrics != nil {
		s.Metrics.BytesRead(len(src))
	}

	result, warnings, err := s.Pipeline.Transform(ctx, raw, src)
	if s.Metrics != nil {
		for _, w := range warnings {
			s.Metrics.Warning(w.Field)
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger().Debug("rendered",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.String("format", string(result.Format)),
		zap.Int("size", result.ByteSize),
	)

	ci := &CachedImage{
		Buffer: result.Buffer,
		Format: string(result.Format),
	}
	ci.SetTime(now())

	return ci, nil
}

// MakeRouter construct the basic router (no middlewares)
func MakeRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthcheck", HealthcheckHandler).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/{bucket}/{key:.+}", ImageHandler).Methods(http.MethodGet, http.MethodHead)

	return router
}

// thumbnailKey identifies a rendering. Peers rebuild the request from it.
func thumbnailKey(bucket, key string, raw pipeline.RawParameters) string {
	q := url.Values{}
	for k, v := range raw {
		q.Set(k, v)
	}

	u := url.URL{Path: "/" + bucket + "/" + key, RawQuery: q.Encode()}
	return u.String()
}

func parseThumbnailKey(s string) (string, string, pipeline.RawParameters, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", "", nil, err
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", nil, fmt.Errorf("not a thumbnail key %#v", s)
	}

	return parts[0], parts[1], Parameters(u.Query()), nil
}

// NewGroups builds the images and thumbnails caches. The prefix keeps the
// group names unique within the process.
func NewGroups(prefix string, c *config.Config, svc *Services) map[string]*groupcache.Group {
	logger := svc.logger()

	var images = groupcache.NewGroup(prefix+"images", c.Cache.ImagesSize, groupcache.GetterFunc(
		func(ctx context.Context, key string, dest groupcache.Sink) error {
			parts := strings.SplitN(key, "/", 2)
			if len(parts) != 2 {
				return fmt.Errorf("not an image key %#v", key)
			}

			data, err := svc.Source.Read(ctx, parts[0], parts[1])
			if err != nil {
				return err
			}

			logger.Debug("caching image", zap.String("key", key), zap.Int("size", len(data)))
			return dest.SetBytes(data)
		},
	))

	var thumbnails = groupcache.NewGroup(prefix+"thumbnails", c.Cache.ThumbnailsSize, groupcache.GetterFunc(
		func(ctx context.Context, key string, dest groupcache.Sink) error {
			bucket, path, raw, err := parseThumbnailKey(key)
			if err != nil {
				return err
			}

			ci, err := svc.render(ctx, images, bucket, path, raw)
			if err != nil {
				return err
			}

			logger.Debug("caching thumbnail", zap.String("key", key), zap.Int("size", len(ci.Buffer)))
			return dest.SetProto(ci)
		},
	))

	return map[string]*groupcache.Group{
		"images":     images,
		"thumbnails": thumbnails,
	}
}

// NewPool registers self and its peers, the returned handler answers the
// peers under groupcache's base path.
func NewPool(self string, peers ...string) *groupcache.HTTPPool {
	pool := groupcache.NewHTTPPoolOpts(self, nil)
	pool.Set(append([]string{self}, peers...)...)
	return pool
}

// NewHandler wires the router and the middlewares. Without groups, every
// request hits the source.
func NewHandler(c *config.Config, svc *Services, groups map[string]*groupcache.Group, pool http.Handler) http.Handler {
	router := MakeRouter()
	if pool != nil {
		router.PathPrefix("/_groupcache/").Handler(pool)
	}

	var h http.Handler = router
	if groups != nil {
		h = WithGroupCaches(h, groups)
	}
	h = WithServices(h, svc)
	h = WithConfig(h, c)
	h = WithSecurityHeaders(h)
	h = WithRequestLogging(h, svc.logger())
	h = WithRecovery(h, svc.logger())
	h = WithProxy(h, c.TrustProxy())

	return h
}
