package resizer

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/golang/groupcache"
	"github.com/gorilla/mux"
	"github.com/greut/resizer/codec"
	"github.com/greut/resizer/config"
	"github.com/greut/resizer/pipeline"
	"go.uber.org/zap"
)

// Parameters keeps the first value of every query argument.
func Parameters(values url.Values) pipeline.RawParameters {
	raw := pipeline.RawParameters{}
	for k, v := range values {
		if len(v) > 0 {
			raw[k] = v[0]
		}
	}
	return raw
}

// ImageHandler responds to /{bucket}/{key} with the transformed image.
func ImageHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket := vars["bucket"]
	key := vars["key"]

	c, _ := r.Context().Value(ContextKey("config")).(*config.Config)
	svc, _ := r.Context().Value(ContextKey("services")).(*Services)
	images, _ := r.Context().Value(ContextKey("images")).(*groupcache.Group)
	thumbnails, _ := r.Context().Value(ContextKey("thumbnails")).(*groupcache.Group)

	if c == nil {
		c = config.Default()
	}
	if svc == nil {
		e := HTTPError{http.StatusInternalServerError, "no pipeline configured"}
		http.Error(w, e.Error(), e.StatusCode)
		return
	}

	status := http.StatusOK
	if svc.Metrics != nil {
		done := svc.Metrics.StartRequest()
		defer func() { done(status) }()
	}

	raw := Parameters(r.URL.Query())

	var image = new(CachedImage)
	var err error
	if thumbnails != nil {
		err = thumbnails.Get(r.Context(), thumbnailKey(bucket, key, raw), groupcache.ProtoSink(image))
	} else {
		image, err = svc.render(r.Context(), images, bucket, key, raw)
	}

	if err != nil {
		e := AsHTTPError(err)
		status = e.StatusCode
		svc.logger().Warn("cannot serve image",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Int("status", e.StatusCode),
			zap.Error(err),
		)
		http.Error(w, e.Error(), e.StatusCode)
		return
	}

	header := w.Header()
	header.Set("Content-Type", codec.Format(image.GetFormat()).MIME())
	if cc := CacheControl(c.Cache); cc != "" {
		header.Set("Cache-Control", cc)
	}

	if svc.Metrics != nil {
		svc.Metrics.BytesWritten(len(image.GetBuffer()))
	}

	http.ServeContent(w, r, "", image.Time(), bytes.NewReader(image.GetBuffer()))
}
