/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type MetricName = string

type MetricValue struct {
	Attributes map[string]string
	Value      float64
}

type MetricsResult map[MetricName][]MetricValue

type MetricsFilter func(MetricName, MetricValue) bool

var All = func(MetricName, MetricValue) bool { return true }

// ReadAll parses a prometheus text exposition
func ReadAll(reader io.Reader) (MetricsResult, error) {
	return ReadWithFilter(reader, All)
}

func ReadWithFilter(reader io.Reader, filter MetricsFilter) (MetricsResult, error) {
	scanner := bufio.NewScanner(reader)
	r := MetricsResult{}
	for scanner.Scan() {
		name, value, err := readLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		if len(name) > 0 && filter(name, value) {
			r[name] = append(r[name], value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed reading metrics")
	}
	return r, nil
}

func readLine(line string) (MetricName, MetricValue, error) {
	line = strings.TrimSpace(line)
	if len(line) == 0 || strings.HasPrefix(line, "#") {
		return "", MetricValue{}, nil
	}
	idx := strings.LastIndex(line, " ")
	if idx == -1 {
		return "", MetricValue{}, errors.Errorf("invalid metric line [%s]", line)
	}
	typ := strings.TrimSpace(line[:idx])
	val, err := strconv.ParseFloat(strings.TrimSpace(line[idx+1:]), 64)
	if err != nil {
		return "", MetricValue{}, errors.Wrapf(err, "invalid metric value [%s]", line)
	}
	nameAttrs := strings.SplitN(strings.TrimSuffix(typ, "}"), "{", 2)
	name := strings.TrimSpace(nameAttrs[0])
	if len(name) == 0 {
		return "", MetricValue{}, errors.Errorf("invalid metric name [%s]", line)
	}
	attrs := make(map[string]string)
	if len(nameAttrs) > 1 && len(nameAttrs[1]) > 0 {
		for _, attr := range strings.Split(nameAttrs[1], ",") {
			keyVal := strings.SplitN(attr, "=", 2)
			if len(keyVal) != 2 {
				return "", MetricValue{}, errors.Errorf("invalid metric attribute [%s]", attr)
			}
			attrs[strings.TrimSpace(keyVal[0])] = strings.Trim(keyVal[1], `"`)
		}
	}
	return name, MetricValue{Value: val, Attributes: attrs}, nil
}
