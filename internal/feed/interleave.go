package feed

// discoveryStride はディスカバリーアイテムを差し込む間隔。
// 5スロットごとに1枠（i % 5 == 4 の位置）をディスカバリーに割り当てる。
const discoveryStride = 5

// discoveryTarget はlimitに対するディスカバリー枠の目標数。
// 20%、ただし最低2枠。limitが極端に小さい場合はlimitでクランプする。
func discoveryTarget(limit int) int {
	target := limit / 5
	if target < 2 {
		target = 2
	}
	if target > limit {
		target = limit
	}
	return target
}

// Interleave はスコア降順のリストを受け取り、ディスカバリーアイテムが
// おおよそ5スロットに1回現れるよう並べ替える。
// regularとdiscoveryに分割し（各パーティション内のスコア順は保存）、
// 位置 i % 5 == 4 をdiscoveryで埋める。片方が尽きた場合はもう片方で埋め、
// フィードを枯渇させない。フォローのみのエコーチェンバー化を防ぐための強制混入。
func Interleave(ranked []ScoredItem, limitHint int) []ScoredItem {
	var regular, discovery []ScoredItem
	for _, it := range ranked {
		if it.IsDiscovery {
			discovery = append(discovery, it)
		} else {
			regular = append(regular, it)
		}
	}

	// limitHintは強制混入枠の上限計算のみに使う。出力は入力全件を
	// 並べ替えて返し、切り詰めは呼び出し側のページングに委ねる。
	target := discoveryTarget(limitHint)

	out := make([]ScoredItem, 0, len(ranked))
	ri, di, forced := 0, 0, 0
	for i := 0; i < len(ranked); i++ {
		useDiscovery := i%discoveryStride == discoveryStride-1 && forced < target

		switch {
		case useDiscovery && di < len(discovery):
			forced++
			out = append(out, discovery[di])
			di++
		case ri < len(regular):
			out = append(out, regular[ri])
			ri++
		case di < len(discovery):
			out = append(out, discovery[di])
			di++
		}
	}
	return out
}
