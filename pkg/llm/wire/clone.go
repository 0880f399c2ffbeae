package wire

import "github.com/bytedance/sonic"

// CloneRequest 深拷贝请求
//
// 通过 JSON 往返复制，结果与原值不共享任何切片或指针。
func CloneRequest(req *GetCompletionsRequest) (*GetCompletionsRequest, error) {
	if req == nil {
		return nil, nil
	}
	data, err := sonic.Marshal(req)
	if err != nil {
		return nil, err
	}
	out := &GetCompletionsRequest{}
	if err := sonic.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
