// Package main runs one taskboard pose estimation cycle over recorded inputs:
// camera intrinsics, a point cloud frame, and a detection batch, all read from
// files. The result is printed as JSON; optionally the detections are drawn
// onto the camera image.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/snipe75/tum-tb-perception/logging"
	"github.com/snipe75/tum-tb-perception/objectdetection"
	"github.com/snipe75/tum-tb-perception/perception"
	"github.com/snipe75/tum-tb-perception/pointcloud"
	"github.com/snipe75/tum-tb-perception/transform"
	"github.com/snipe75/tum-tb-perception/visualization"
)

func main() {
	var (
		intrinsicsPath = flag.String("intrinsics", "", "path to camera intrinsics JSON (required)")
		cloudPath      = flag.String("cloud", "", "path to point cloud file, one 'x y z' triple per line (required)")
		detectionsPath = flag.String("detections", "", "path to detections JSON (required)")
		configPath     = flag.String("config", "", "optional path to pipeline config JSON")
		colorsPath     = flag.String("colors", "", "optional path to class colors YAML")
		imagePath      = flag.String("image", "", "optional camera image to annotate")
		annotatedPath  = flag.String("annotated", "", "where to write the annotated image")
		debug          = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := logging.NewLogger("perception")
	if *debug {
		logger = logging.NewDebugLogger("perception")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := realMain(ctx, logger, arguments{
		intrinsicsPath: *intrinsicsPath,
		cloudPath:      *cloudPath,
		detectionsPath: *detectionsPath,
		configPath:     *configPath,
		colorsPath:     *colorsPath,
		imagePath:      *imagePath,
		annotatedPath:  *annotatedPath,
	}); err != nil {
		logger.Fatal(err)
	}
}

type arguments struct {
	intrinsicsPath string
	cloudPath      string
	detectionsPath string
	configPath     string
	colorsPath     string
	imagePath      string
	annotatedPath  string
}

func realMain(ctx context.Context, logger logging.Logger, args arguments) (err error) {
	defer func() {
		err = multierr.Combine(err, logger.Sync())
	}()

	if args.intrinsicsPath == "" || args.cloudPath == "" || args.detectionsPath == "" {
		return errors.New("-intrinsics, -cloud and -detections are required")
	}

	intrinsics, intrErr := transform.NewPinholeCameraIntrinsicsFromJSONFile(args.intrinsicsPath)
	cloud, cloudErr := readPointCloudFile(args.cloudPath)
	dets, detErr := readDetectionsFile(args.detectionsPath)
	if err := multierr.Combine(intrErr, cloudErr, detErr); err != nil {
		return errors.Wrap(err, "error loading inputs")
	}

	cfg := perception.NewConfig()
	if args.configPath != "" {
		am, err := readAttributeMap(args.configPath)
		if err != nil {
			return err
		}
		if err := cfg.ConvertAttributes(am); err != nil {
			return errors.Wrap(err, "error applying config attributes")
		}
	}

	pipeline, err := perception.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	if err := pipeline.SetIntrinsics(intrinsics); err != nil {
		return err
	}
	pipeline.SetPointCloud(cloud)
	pipeline.SetDetections(dets)

	logger.Infow("running estimation cycle",
		"points", cloud.Size(), "detections", len(dets))
	result, err := pipeline.EstimateOnce(ctx)
	if err != nil {
		return err
	}
	if err := printResult(result); err != nil {
		return err
	}

	if args.imagePath != "" {
		if err := annotateImage(args, dets, logger); err != nil {
			return err
		}
	}
	return nil
}

// readPointCloudFile parses an ASCII point cloud file, one whitespace
// separated x y z triple per line. Blank lines and '#' comments are skipped;
// NaN values pass through and are dropped by the cloud itself.
func readPointCloudFile(path string) (_ pointcloud.PointCloud, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening point cloud file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var pts []r3.Vector
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, errors.Errorf("line %d: expected 3 values, got %d", line, len(fields))
		}
		var p r3.Vector
		for i, dst := range []*float64{&p.X, &p.Y, &p.Z} {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			*dst = v
		}
		pts = append(pts, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading point cloud file")
	}
	return pointcloud.NewFromSlice(pts), nil
}

type detectionRecord struct {
	Label      string  `json:"label"`
	XMin       float64 `json:"xmin"`
	YMin       float64 `json:"ymin"`
	XMax       float64 `json:"xmax"`
	YMax       float64 `json:"ymax"`
	Confidence float64 `json:"confidence"`
}

func readDetectionsFile(path string) ([]objectdetection.Detection, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading detections file")
	}
	var records []detectionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "error parsing detections JSON")
	}
	dets := make([]objectdetection.Detection, 0, len(records))
	for _, r := range records {
		box := objectdetection.Box{XMin: r.XMin, YMin: r.YMin, XMax: r.XMax, YMax: r.YMax}
		d, err := objectdetection.NewDetection(r.Label, box, r.Confidence)
		if err != nil {
			return nil, err
		}
		dets = append(dets, d)
	}
	return dets, nil
}

func readAttributeMap(path string) (perception.AttributeMap, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}
	var am perception.AttributeMap
	if err := json.Unmarshal(data, &am); err != nil {
		return nil, errors.Wrap(err, "error parsing config JSON")
	}
	return am, nil
}

type poseRecord struct {
	Position   [3]float64  `json:"position_m"`
	Quaternion *[4]float64 `json:"quaternion_wxyz,omitempty"`
}

type resultRecord struct {
	Poses               map[string]poseRecord `json:"poses"`
	OrientationValid    bool                  `json:"orientation_valid"`
	HorizontalSideFound bool                  `json:"horizontal_side_found"`
	VerticalSideFound   bool                  `json:"vertical_side_found"`
	Attempts            int                   `json:"attempts"`
}

func printResult(result perception.Result) error {
	record := resultRecord{
		Poses:               make(map[string]poseRecord, len(result.Positions)),
		OrientationValid:    result.OrientationValid,
		HorizontalSideFound: result.HorizontalSideFound,
		VerticalSideFound:   result.VerticalSideFound,
		Attempts:            result.Attempts,
	}
	for label, pos := range result.Positions {
		pr := poseRecord{Position: [3]float64{pos.X, pos.Y, pos.Z}}
		if result.OrientationValid {
			q := result.Poses[label].Orientation
			pr.Quaternion = &[4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
		}
		record.Poses[label] = pr
	}
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func annotateImage(args arguments, dets []objectdetection.Detection, logger logging.Logger) error {
	if args.annotatedPath == "" {
		return errors.New("-annotated is required with -image")
	}
	colors := visualization.ClassColorMap{}
	if args.colorsPath != "" {
		var err error
		colors, err = visualization.LoadClassColors(args.colorsPath)
		if err != nil {
			return err
		}
	}
	img, err := imaging.Open(args.imagePath)
	if err != nil {
		return errors.Wrap(err, "error opening camera image")
	}
	annotated := visualization.Annotate(img, dets, colors, logger)
	if err := imaging.Save(annotated, args.annotatedPath); err != nil {
		return errors.Wrap(err, "error writing annotated image")
	}
	logger.Infow("wrote annotated image", "path", args.annotatedPath)
	return nil
}
