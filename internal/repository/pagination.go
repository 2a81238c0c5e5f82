package repository

// pageWindow 统一处理非法页码与页大小，返回 limit 与 offset。
func pageWindow(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return pageSize, offset
}
