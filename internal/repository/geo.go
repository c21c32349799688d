package repository

import "math"

// earthRadiusMiles は地球の半径（マイル）。
const earthRadiusMiles = 3959.0

// milesPerLatDegree は緯度1度あたりの距離（マイル）。
const milesPerLatDegree = 69.0

// boundingBox は半径radiusMilesを包含する緯度経度の矩形を返す。
// SQLのインデックススキャンで使える粗いプレフィルタで、
// 正確な距離判定はhaversineMilesで行う。
func boundingBox(lat, lng, radiusMiles float64) (latMin, latMax, lngMin, lngMax float64) {
	latDelta := radiusMiles / milesPerLatDegree
	lngDelta := radiusMiles / (milesPerLatDegree * math.Cos(lat*math.Pi/180))
	return lat - latDelta, lat + latDelta, lng - lngDelta, lng + lngDelta
}

// haversineMiles は2地点間の大円距離（マイル）を返す。
func haversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// nullableArray は空スライスをSQLのANY述語で安全に使えるよう、
// 決して一致しないダミー値に置き換える。
// lib/pqのpq.Arrayは空配列を渡せるが、`= ANY('{}')` は常にfalseになるため
// そのまま渡しても正しい。この関数はnilを空スライスに正規化するだけに使う。
func nullableArray(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
